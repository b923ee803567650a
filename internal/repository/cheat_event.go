package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unipilot/unipilot/internal/domain"
)

type CheatEventRepository struct {
	db dbtx
}

func NewCheatEventRepository(pool *pgxpool.Pool) *CheatEventRepository {
	return &CheatEventRepository{db: pool}
}

func (r *CheatEventRepository) Create(ctx context.Context, e *domain.CheatEvent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO anti_cheat_events (id, session_id, label, reason, mode, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SessionID, e.Label, e.Reason, e.Mode, e.Message, e.CreatedAt,
	)
	return err
}

// ListBySession returns up to limit events of a session, newest first.
func (r *CheatEventRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.CheatEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, label, reason, mode, message, created_at FROM anti_cheat_events
		 WHERE session_id = $1 ORDER BY created_at DESC, id LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.CheatEvent, 0)
	for rows.Next() {
		var e domain.CheatEvent
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Label, &e.Reason, &e.Mode, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
