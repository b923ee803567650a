package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unipilot/unipilot/internal/domain"
)

const projectColumns = `id, user_id, title, level, domain, stack, constraints, created_at, updated_at`

type ProjectRepository struct {
	db dbtx
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		project.ID,
		project.UserID,
		project.Title,
		nullableString(project.Level),
		nullableString(project.Domain),
		nullableString(project.Stack),
		nullableString(project.Constraints),
		project.CreatedAt,
		project.UpdatedAt,
	)
	return err
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByUser returns the projects of a user, newest first.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	var level, domainName, stack, constraints *string
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &level, &domainName, &stack, &constraints, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Level = derefString(level)
	p.Domain = derefString(domainName)
	p.Stack = derefString(stack)
	p.Constraints = derefString(constraints)
	return &p, nil
}
