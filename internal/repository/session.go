package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unipilot/unipilot/internal/domain"
)

type SessionRepository struct {
	db dbtx
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_sessions (id, project_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.ProjectID, nullableString(s.Name), s.CreatedAt,
	)
	return err
}

// GetWithProject loads a session joined with its project.
func (r *SessionRepository) GetWithProject(ctx context.Context, id string) (*domain.SessionWithProject, error) {
	var s domain.SessionWithProject
	var name, level, domainName, stack, constraints *string
	err := r.db.QueryRow(ctx,
		`SELECT s.id, s.project_id, s.name, s.created_at,
		        p.id, p.user_id, p.title, p.level, p.domain, p.stack, p.constraints, p.created_at, p.updated_at
		 FROM chat_sessions s
		 JOIN projects p ON p.id = s.project_id
		 WHERE s.id = $1`,
		id,
	).Scan(
		&s.ID, &s.ProjectID, &name, &s.CreatedAt,
		&s.Project.ID, &s.Project.UserID, &s.Project.Title, &level, &domainName, &stack, &constraints,
		&s.Project.CreatedAt, &s.Project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	s.Name = derefString(name)
	s.Project.Level = derefString(level)
	s.Project.Domain = derefString(domainName)
	s.Project.Stack = derefString(stack)
	s.Project.Constraints = derefString(constraints)
	return &s, nil
}

// ListByProject returns the sessions of a project, newest first.
func (r *SessionRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Session, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, project_id, name, created_at FROM chat_sessions
		 WHERE project_id = $1 ORDER BY created_at DESC, id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		var s domain.Session
		var name *string
		if err := rows.Scan(&s.ID, &s.ProjectID, &name, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Name = derefString(name)
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
