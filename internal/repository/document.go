package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unipilot/unipilot/internal/domain"
)

const documentSelect = `SELECT d.id, d.project_id, d.filename, d.mime_type, d.size, d.status, d.storage_key,
	(SELECT COUNT(*) FROM document_chunks c WHERE c.document_id = d.id),
	d.created_at, d.updated_at
	FROM documents d`

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, project_id, filename, mime_type, size, status, storage_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.ProjectID, d.Filename, d.MimeType, d.Size, d.Status, nullableString(d.StorageKey), d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	d, err := scanDocument(r.db.QueryRow(ctx, documentSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByProject returns the documents of a project with their chunk counts,
// newest first.
func (r *DocumentRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx, documentSelect+` WHERE d.project_id = $1 ORDER BY d.created_at DESC, d.id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// FinishProcessing moves a processing document to its terminal status.
// A document that already left processing is not touched and
// ErrDocumentNotProcessing is returned.
func (r *DocumentRepository) FinishProcessing(ctx context.Context, id string, status domain.DocumentStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, status, domain.DocumentStatusProcessing,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotProcessing
	}
	return nil
}

// TouchProcessing bumps updated_at of a processing document so the stale
// sweeper skips it.
func (r *DocumentRepository) TouchProcessing(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, domain.DocumentStatusProcessing,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotProcessing
	}
	return nil
}

func (r *DocumentRepository) UpdateStorageKey(ctx context.Context, id, key string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE documents SET storage_key = $2, updated_at = NOW() WHERE id = $1`,
		id, nullableString(key),
	)
	return err
}

// Delete removes a document. Its chunks go with it.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// MarkStaleProcessingFailed fails every document still processing whose last
// update is older than before, and returns how many were changed.
func (r *DocumentRepository) MarkStaleProcessingFailed(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND updated_at < $3`,
		domain.DocumentStatusFailed, domain.DocumentStatusProcessing, before,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	var storageKey *string
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.MimeType, &d.Size, &d.Status, &storageKey, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.StorageKey = derefString(storageKey)
	return &d, nil
}
