package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unipilot/unipilot/internal/api"
	"github.com/unipilot/unipilot/internal/api/middleware"
	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/service"
)

type ProjectService interface {
	Create(ctx context.Context, input service.CreateProjectInput) (*domain.Project, error)
	List(ctx context.Context, userID string) ([]*domain.Project, error)
	Get(ctx context.Context, userID, projectID string) (*domain.Project, error)
}

type ProjectHandler struct {
	svc ProjectService
}

func NewProjectHandler(svc ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type CreateProjectRequest struct {
	Title       string `json:"title"`
	Level       string `json:"level,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Stack       string `json:"stack,omitempty"`
	Constraints string `json:"constraints,omitempty"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	project, err := h.svc.Create(r.Context(), service.CreateProjectInput{
		UserID:      userID,
		Title:       req.Title,
		Level:       req.Level,
		Domain:      req.Domain,
		Stack:       req.Stack,
		Constraints: req.Constraints,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.Get(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if projects == nil {
		projects = []*domain.Project{}
	}

	api.Success(w, http.StatusOK, projects)
}
