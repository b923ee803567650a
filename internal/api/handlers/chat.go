package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/unipilot/unipilot/internal/api"
	"github.com/unipilot/unipilot/internal/api/middleware"
	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/service"
)

type ChatService interface {
	Send(ctx context.Context, input service.SendInput) (*service.TurnResult, error)
	History(ctx context.Context, userID, sessionID string) ([]*domain.Message, error)
	Export(ctx context.Context, userID, sessionID string) (*service.SessionExport, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type SendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Mode      string `json:"mode,omitempty"`
	Lang      string `json:"lang,omitempty"`
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.SessionID) == "" {
		api.Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	mode, err := domain.ParseChatMode(req.Mode)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	lang, err := domain.ParseLanguage(req.Lang)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.svc.Send(r.Context(), service.SendInput{
		UserID:    middleware.GetUserID(r.Context()),
		SessionID: req.SessionID,
		Message:   req.Message,
		Mode:      mode,
		Language:  lang,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		api.Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	messages, err := h.svc.History(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if messages == nil {
		messages = []*domain.Message{}
	}

	api.Success(w, http.StatusOK, messages)
}

// Export serves the session as a Markdown document or as a raw JSON document.
func (h *ChatHandler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		api.Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	format, err := service.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	export, err := h.svc.Export(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if format == service.ExportFormatJSON {
		api.JSON(w, http.StatusOK, export)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(service.RenderMarkdown(export)))
}
