package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unipilot/unipilot/internal/api"
	"github.com/unipilot/unipilot/internal/api/middleware"
	"github.com/unipilot/unipilot/internal/service"
)

const maxSearchResults = 20

type ChunkSearch interface {
	Search(ctx context.Context, projectID, query string, k int) ([]*service.RetrievedChunk, error)
}

type SearchHandler struct {
	projects ProjectService
	search   ChunkSearch
}

func NewSearchHandler(projects ProjectService, search ChunkSearch) *SearchHandler {
	return &SearchHandler{projects: projects, search: search}
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Search runs a similarity search over the ready documents of a project.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.K < 0 || req.K > maxSearchResults {
		api.Error(w, http.StatusBadRequest, "k must be between 1 and 20")
		return
	}

	projectID := chi.URLParam(r, "id")
	if _, err := h.projects.Get(r.Context(), middleware.GetUserID(r.Context()), projectID); err != nil {
		api.HandleError(w, err)
		return
	}

	results, err := h.search.Search(r.Context(), projectID, req.Query, req.K)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if results == nil {
		results = []*service.RetrievedChunk{}
	}

	api.Success(w, http.StatusOK, results)
}
