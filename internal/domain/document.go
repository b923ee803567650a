package domain

import (
	"fmt"
	"time"
)

// DocumentStatus is the ingestion lifecycle state of a document
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is a reference file uploaded to a project.
type Document struct {
	ID         string         `json:"id"`
	ProjectID  string         `json:"projectId"`
	Filename   string         `json:"filename"`
	MimeType   string         `json:"mimeType"`
	Size       int64          `json:"size"`
	Status     DocumentStatus `json:"status"`
	StorageKey string         `json:"-"`
	ChunkCount int            `json:"chunkCount"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Chunk is a bounded, independently embeddable segment of a document.
// Embedding is nil until the chunk has been embedded.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// HasEmbedding reports whether the chunk is visible to retrieval.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.ProjectID == "" {
		return fmt.Errorf("document ProjectID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	return nil
}

func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusProcessing, DocumentStatusReady, DocumentStatusFailed:
		return true
	}
	return false
}
