package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unipilot/unipilot/internal/api"
	"github.com/unipilot/unipilot/internal/api/middleware"
	"github.com/unipilot/unipilot/internal/domain"
)

type SessionService interface {
	Create(ctx context.Context, userID, projectID, name string) (*domain.Session, error)
	List(ctx context.Context, userID, projectID string) ([]*domain.Session, error)
	AntiCheatEvents(ctx context.Context, userID, sessionID string, take int) ([]*domain.CheatEvent, error)
}

type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type CreateSessionRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name,omitempty"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.ProjectID) == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	session, err := h.svc.Create(r.Context(), middleware.GetUserID(r.Context()), req.ProjectID, req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, session)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	sessions, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if sessions == nil {
		sessions = []*domain.Session{}
	}

	api.Success(w, http.StatusOK, sessions)
}

// AntiCheat lists the audit records of a session. An unparsable take falls
// back to the default.
func (h *SessionHandler) AntiCheat(w http.ResponseWriter, r *http.Request) {
	take := 0
	if raw := r.URL.Query().Get("take"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			take = n
		}
	}

	events, err := h.svc.AntiCheatEvents(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), take)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if events == nil {
		events = []*domain.CheatEvent{}
	}

	api.Success(w, http.StatusOK, events)
}
