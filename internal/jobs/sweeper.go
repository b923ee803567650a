package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/metrics"
)

// DefaultStaleAfter is how long a document may stay processing
const DefaultStaleAfter = 15 * time.Minute

// StaleDocumentRepository fails documents left processing since before a cutoff
type StaleDocumentRepository interface {
	MarkStaleProcessingFailed(ctx context.Context, before time.Time) (int64, error)
}

// StaleDocumentSweeper marks documents stuck in processing as failed, which
// happens when the process dies mid-ingestion.
type StaleDocumentSweeper struct {
	repo       StaleDocumentRepository
	staleAfter time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewStaleDocumentSweeper(repo StaleDocumentRepository, staleAfter time.Duration, logger *zap.Logger) *StaleDocumentSweeper {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaleDocumentSweeper{
		repo:       repo,
		staleAfter: staleAfter,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ProcessJobs runs one sweep
func (s *StaleDocumentSweeper) ProcessJobs(ctx context.Context) error {
	cutoff := s.now().Add(-s.staleAfter)

	n, err := s.repo.MarkStaleProcessingFailed(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep stale documents: %w", err)
	}

	if n > 0 {
		metrics.DocumentsSwept.Add(float64(n))
		s.logger.Warn("marked stale documents as failed",
			zap.Int64("count", n),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}
