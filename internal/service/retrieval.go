package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/metrics"
	"github.com/unipilot/unipilot/internal/telemetry"
)

// DefaultTopK is the number of chunks retrieved when no limit is given.
const DefaultTopK = 5

const sourcesHeader = "SOURCES (utilise des citations [S1], [S2], ...):"

// RetrievedChunk is a chunk matched by a similarity search.
type RetrievedChunk struct {
	ChunkID    string  `json:"chunkId"`
	DocumentID string  `json:"documentId"`
	Filename   string  `json:"filename"`
	Index      int     `json:"index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// ChunkSearcher runs the vector similarity query, restricted to embedded
// chunks of ready documents in the project.
type ChunkSearcher interface {
	SearchByEmbedding(ctx context.Context, projectID string, embedding []float32, limit int) ([]*RetrievedChunk, error)
}

// RetrievalService finds the chunks of a project closest to a query.
type RetrievalService struct {
	embedder Embedder
	chunks   ChunkSearcher
	topK     int
	logger   *zap.Logger
}

// NewRetrievalService creates a RetrievalService. A non-positive topK falls
// back to DefaultTopK.
func NewRetrievalService(embedder Embedder, chunks ChunkSearcher, topK int, logger *zap.Logger) *RetrievalService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrievalService{embedder: embedder, chunks: chunks, topK: topK, logger: logger}
}

// Search returns at most k chunks ordered by descending score.
func (s *RetrievalService) Search(ctx context.Context, projectID, query string, k int) ([]*RetrievedChunk, error) {
	if k <= 0 {
		k = s.topK
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []*RetrievedChunk{}, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.chunks.SearchByEmbedding(ctx, projectID, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// BuildContext renders the SOURCES block for the prompt. Any failure or an
// empty result yields "" so the turn goes on without sources.
func (s *RetrievalService) BuildContext(ctx context.Context, projectID, query string, k int) string {
	results, err := s.Search(ctx, projectID, query, k)
	if err != nil {
		metrics.RetrievalFallbacks.Inc()
		telemetry.AddBreadcrumb(ctx, "retrieval", "fallback to empty sources")
		s.logger.Warn("retrieval failed, continuing without sources",
			zap.String("project_id", projectID),
			zap.String("query", truncateRunes(query, 80)),
			zap.Error(err),
		)
		return ""
	}
	return FormatSources(results)
}

// FormatSources renders chunks as numbered citations.
func FormatSources(chunks []*RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	lines := make([]string, 0, len(chunks)+1)
	lines = append(lines, sourcesHeader)
	for i, c := range chunks {
		lines = append(lines, fmt.Sprintf("[S%d] %s: %s", i+1, c.Filename, c.Content))
	}
	return strings.Join(lines, "\n")
}
