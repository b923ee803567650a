package repository

import (
	"context"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unipilot/unipilot/internal/domain"
)

// MessageRepository persists append-only chat messages. Order is creation
// time, then insertion sequence.
type MessageRepository struct {
	db dbtx
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: pool}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt,
	)
	return err
}

// ListBySession returns every message of a session, oldest first.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, role, content, created_at FROM chat_messages
		 WHERE session_id = $1 ORDER BY created_at, seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// ListRecent returns the last limit messages of a session, oldest first.
func (r *MessageRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, role, content, created_at FROM chat_messages
		 WHERE session_id = $1 ORDER BY created_at DESC, seq DESC LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func collectMessages(rows pgx.Rows) ([]*domain.Message, error) {
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
