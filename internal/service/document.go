package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/extract"
	"github.com/unipilot/unipilot/internal/metrics"
	"github.com/unipilot/unipilot/internal/telemetry"
)

// DocumentRepositoryInterface defines the interface for document persistence
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Document, error)
	FinishProcessing(ctx context.Context, id string, status domain.DocumentStatus) error
	TouchProcessing(ctx context.Context, id string) error
	UpdateStorageKey(ctx context.Context, id, key string) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepositoryInterface defines the interface for chunk persistence
type ChunkRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Chunk) error
	AttachEmbedding(ctx context.Context, chunkID string, embedding []float32) error
}

// BlobStore archives original uploads. It is optional.
type BlobStore interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) error
	GenerateDownloadURL(ctx context.Context, key, filename string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

var errExtractFailed = domain.NewDomainError(domain.ErrCodeValidation, "could not read document")

// DocumentService ingests course documents into the chunk store
type DocumentService struct {
	docs     DocumentRepositoryInterface
	chunks   ChunkRepositoryInterface
	projects ProjectRepositoryInterface
	embedder Embedder
	chunker  *Chunker
	blobs    BlobStore
	uuidGen  UUIDGenerator
	logger   *zap.Logger
	now      func() time.Time
}

// DocumentServiceConfig wires the collaborators of a DocumentService.
// Blobs may be nil when no bucket is configured.
type DocumentServiceConfig struct {
	Documents DocumentRepositoryInterface
	Chunks    ChunkRepositoryInterface
	Projects  ProjectRepositoryInterface
	Embedder  Embedder
	Chunker   *Chunker
	Blobs     BlobStore
	UUIDGen   UUIDGenerator
	Logger    *zap.Logger
}

func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	s := &DocumentService{
		docs:     cfg.Documents,
		chunks:   cfg.Chunks,
		projects: cfg.Projects,
		embedder: cfg.Embedder,
		chunker:  cfg.Chunker,
		blobs:    cfg.Blobs,
		uuidGen:  cfg.UUIDGen,
		logger:   cfg.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if s.chunker == nil {
		s.chunker = &Chunker{cfg: DefaultChunkConfig()}
	}
	if s.uuidGen == nil {
		s.uuidGen = &DefaultUUIDGenerator{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// UploadInput contains a document upload
type UploadInput struct {
	UserID    string
	ProjectID string
	Filename  string
	MimeType  string
	Data      []byte
}

// Upload stores, extracts, chunks and embeds a document. Once the document
// row exists it is returned even on error, carrying its final status.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*domain.Document, error) {
	if _, err := loadOwnedProject(ctx, s.projects, input.UserID, input.ProjectID); err != nil {
		return nil, err
	}
	if len(input.Data) == 0 {
		return nil, domain.ErrEmptyUpload
	}

	filename := cleanFilename(input.Filename)
	mimeType := extract.NormalizeMimeType(filename, input.MimeType)
	if !extract.Supported(mimeType) {
		return nil, domain.ErrUnsupportedMimeType
	}

	now := s.now()
	doc := &domain.Document{
		ID:        s.uuidGen.NewString(),
		ProjectID: input.ProjectID,
		Filename:  filename,
		MimeType:  mimeType,
		Size:      int64(len(input.Data)),
		Status:    domain.DocumentStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	ctx, span := telemetry.StartSpan(ctx, "service.document.upload", telemetry.SpanAttributes{
		UserID:     input.UserID,
		ProjectID:  input.ProjectID,
		DocumentID: doc.ID,
		Operation:  "upload",
	})
	defer span.End()

	if err := s.docs.Create(ctx, doc); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if err := s.ingest(ctx, doc, input.Data); err != nil {
		s.fail(ctx, doc, err)
		return doc, err
	}

	if err := s.docs.FinishProcessing(ctx, doc.ID, domain.DocumentStatusReady); err != nil {
		s.fail(ctx, doc, err)
		return doc, fmt.Errorf("failed to mark document ready: %w", err)
	}
	doc.Status = domain.DocumentStatusReady
	metrics.DocumentsIngested.WithLabelValues(string(domain.DocumentStatusReady)).Inc()

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("project_id", doc.ProjectID),
		zap.String("mime_type", doc.MimeType),
		zap.Int("chunks", doc.ChunkCount),
	)
	return doc, nil
}

func (s *DocumentService) ingest(ctx context.Context, doc *domain.Document, data []byte) error {
	if s.blobs != nil {
		key := buildStorageKey(doc.ProjectID, doc.ID, doc.Filename)
		if err := s.blobs.PutObject(ctx, key, doc.MimeType, data); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrStorageOperationFail.Message, err)
		}
		if err := s.docs.UpdateStorageKey(ctx, doc.ID, key); err != nil {
			return fmt.Errorf("failed to save storage key: %w", err)
		}
		doc.StorageKey = key
	}

	text, err := extract.Text(doc.MimeType, data)
	if err != nil {
		if domain.CodeOf(err) != "" {
			return err
		}
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, errExtractFailed.Message, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.ErrNoExtractableText
	}

	pieces := s.chunker.Chunk(text)
	if len(pieces) == 0 {
		return domain.ErrDocumentTooSmall
	}

	for i, content := range pieces {
		chunk := &domain.Chunk{
			ID:         s.uuidGen.NewString(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
			CreatedAt:  s.now(),
		}
		if err := s.chunks.Create(ctx, chunk); err != nil {
			return fmt.Errorf("failed to create chunk %d: %w", i, err)
		}

		embedding, err := s.embedder.Embed(ctx, content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}

		if err := s.chunks.AttachEmbedding(ctx, chunk.ID, embedding); err != nil {
			return fmt.Errorf("failed to attach embedding to chunk %d: %w", i, err)
		}
		doc.ChunkCount = i + 1

		if err := s.docs.TouchProcessing(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to refresh document after chunk %d: %w", i, err)
		}
	}
	return nil
}

// fail marks the document failed. The write must survive a cancelled request.
func (s *DocumentService) fail(ctx context.Context, doc *domain.Document, cause error) {
	doc.Status = domain.DocumentStatusFailed
	metrics.DocumentsIngested.WithLabelValues(string(domain.DocumentStatusFailed)).Inc()

	err := s.docs.FinishProcessing(context.WithoutCancel(ctx), doc.ID, domain.DocumentStatusFailed)
	if err != nil && !errors.Is(err, domain.ErrDocumentNotProcessing) {
		s.logger.Error("failed to mark document failed",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
	}

	fields := []zap.Field{
		zap.String("document_id", doc.ID),
		zap.String("project_id", doc.ProjectID),
		zap.Int("embedded_chunks", doc.ChunkCount),
		zap.Error(cause),
	}
	if domain.CodeOf(cause) == domain.ErrCodeValidation {
		s.logger.Info("document rejected", fields...)
		return
	}
	s.logger.Error("document ingestion failed", fields...)
	if domain.CodeOf(cause) == "" || errors.Is(cause, domain.ErrModelUnexpected) {
		telemetry.CaptureError(ctx, cause)
	}
}

// List returns the documents of a project, newest first
func (s *DocumentService) List(ctx context.Context, userID, projectID string) ([]*domain.Document, error) {
	if _, err := loadOwnedProject(ctx, s.projects, userID, projectID); err != nil {
		return nil, err
	}
	return s.docs.ListByProject(ctx, projectID)
}

// Get returns a document whose project is owned by userID
func (s *DocumentService) Get(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := loadOwnedProject(ctx, s.projects, userID, doc.ProjectID); err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes a document with its chunks, then its archived original.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return err
	}

	if s.blobs != nil && doc.StorageKey != "" {
		if err := s.blobs.DeleteObject(ctx, doc.StorageKey); err != nil {
			s.logger.Warn("failed to delete archived document",
				zap.String("document_id", doc.ID),
				zap.String("storage_key", doc.StorageKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

// DownloadURL returns a presigned URL of the archived original.
func (s *DocumentService) DownloadURL(ctx context.Context, userID, documentID string) (string, error) {
	if s.blobs == nil {
		return "", domain.ErrStorageNotConfigured
	}

	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	if doc.StorageKey == "" {
		return "", domain.NewDomainError(domain.ErrCodeNotFound, "document has no archived original")
	}

	url, err := s.blobs.GenerateDownloadURL(ctx, doc.StorageKey, doc.Filename)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrStorageOperationFail.Message, err)
	}
	return url, nil
}

func cleanFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "original"
	}
	return name
}

func buildStorageKey(projectID, documentID, filename string) string {
	return fmt.Sprintf("projects/%s/documents/%s/%s", projectID, documentID, cleanFilename(filename))
}
