package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/service"
)

func TestSearchHandler_Search(t *testing.T) {
	projects := new(MockProjectService)
	search := new(MockChunkSearch)
	handler := NewSearchHandler(projects, search)
	projects.On("Get", mock.Anything, testUserID, "proj-1").Return(&domain.Project{ID: "proj-1"}, nil)
	search.On("Search", mock.Anything, "proj-1", "automates", 3).Return([]*service.RetrievedChunk{
		{ChunkID: "c1", Filename: "cours.pdf", Content: "Un automate", Score: 0.9},
	}, nil)

	req := withURLParam(requestWithUserID(http.MethodPost, "/projects/proj-1/search", []byte(`{"query":"automates","k":3}`)), "id", "proj-1")
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"chunkId":"c1"`)
	search.AssertExpectations(t)
}

func TestSearchHandler_Search_ForeignProject(t *testing.T) {
	projects := new(MockProjectService)
	search := new(MockChunkSearch)
	handler := NewSearchHandler(projects, search)
	projects.On("Get", mock.Anything, testUserID, "proj-2").Return(nil, domain.ErrProjectNotFound)

	req := withURLParam(requestWithUserID(http.MethodPost, "/projects/proj-2/search", []byte(`{"query":"x"}`)), "id", "proj-2")
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchHandler_Search_Validation(t *testing.T) {
	for _, body := range []string{`{`, `{"query":" "}`, `{"query":"x","k":50}`} {
		handler := NewSearchHandler(new(MockProjectService), new(MockChunkSearch))
		req := withURLParam(requestWithUserID(http.MethodPost, "/projects/proj-1/search", []byte(body)), "id", "proj-1")
		w := httptest.NewRecorder()

		handler.Search(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}
