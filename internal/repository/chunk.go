package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/service"
)

// ChunkRepository persists document chunks and runs the similarity search.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

// Create inserts a chunk without its embedding.
func (r *ChunkRepository) Create(ctx context.Context, c *domain.Chunk) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO document_chunks (id, document_id, chunk_index, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.DocumentID, c.Index, c.Content, c.CreatedAt,
	)
	return err
}

func (r *ChunkRepository) AttachEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE document_chunks SET embedding = $2 WHERE id = $1`,
		chunkID, pgvector.NewVector(embedding),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrCodeNotFound, "chunk not found")
	}
	return nil
}

// ListByDocument returns the chunks of a document in index order.
func (r *ChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, embedding, created_at
		 FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make([]*domain.Chunk, 0)
	for rows.Next() {
		var c domain.Chunk
		var embedding *pgvector.Vector
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &embedding, &c.CreatedAt); err != nil {
			return nil, err
		}
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// SearchByEmbedding returns the chunks of ready documents in the project
// closest to embedding by cosine distance.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, projectID string, embedding []float32, limit int) ([]*service.RetrievedChunk, error) {
	if limit <= 0 {
		limit = service.DefaultTopK
	}

	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.document_id, d.filename, c.chunk_index, c.content,
		        1 - (c.embedding <=> $1) AS score
		 FROM document_chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE d.project_id = $2
		   AND d.status = $3
		   AND c.embedding IS NOT NULL
		 ORDER BY c.embedding <=> $1, c.created_at, c.chunk_index
		 LIMIT $4`,
		pgvector.NewVector(embedding), projectID, domain.DocumentStatusReady, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*service.RetrievedChunk, 0)
	for rows.Next() {
		var res service.RetrievedChunk
		if err := rows.Scan(&res.ChunkID, &res.DocumentID, &res.Filename, &res.Index, &res.Content, &res.Score); err != nil {
			return nil, err
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}
