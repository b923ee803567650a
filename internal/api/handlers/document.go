package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unipilot/unipilot/internal/api"
	"github.com/unipilot/unipilot/internal/api/middleware"
	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/service"
)

// DefaultMaxUploadBytes is the largest accepted document
const DefaultMaxUploadBytes int64 = 20 << 20

const multipartMemory = 8 << 20

type DocumentService interface {
	Upload(ctx context.Context, input service.UploadInput) (*domain.Document, error)
	List(ctx context.Context, userID, projectID string) ([]*domain.Document, error)
	Get(ctx context.Context, userID, documentID string) (*domain.Document, error)
	Delete(ctx context.Context, userID, documentID string) error
	DownloadURL(ctx context.Context, userID, documentID string) (string, error)
}

type DocumentHandler struct {
	svc      DocumentService
	maxBytes int64
}

func NewDocumentHandler(svc DocumentService, maxBytes int64) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DocumentHandler{svc: svc, maxBytes: maxBytes}
}

// UploadErrorResponse reports a failed ingestion with the document left behind
type UploadErrorResponse struct {
	api.ErrorResponse
	Document *domain.Document `json:"document,omitempty"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// Upload ingests a multipart upload with fields "projectId" and "file".
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	projectID := strings.TrimSpace(r.FormValue("projectId"))
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		api.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		api.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	doc, err := h.svc.Upload(r.Context(), service.UploadInput{
		UserID:    middleware.GetUserID(r.Context()),
		ProjectID: projectID,
		Filename:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Data:      data,
	})
	if err != nil {
		status, body := api.NewErrorResponse(err)
		api.JSON(w, status, UploadErrorResponse{ErrorResponse: body, Document: doc})
		return
	}

	api.Success(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	docs, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if docs == nil {
		docs = []*domain.Document{}
	}

	api.Success(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Get(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.DownloadURL(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadURLResponse{DownloadURL: url})
}
