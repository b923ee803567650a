package service

import (
	"fmt"
	"strings"
)

// ChunkConfig controls how extracted document text is split for embedding.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
	MinChars int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1200,
		Overlap:  200,
		MinChars: 200,
	}
}

// Chunker splits normalized text into overlapping fixed-size windows.
type Chunker struct {
	cfg ChunkConfig
}

// NewChunker validates cfg and returns a Chunker.
func NewChunker(cfg ChunkConfig) (*Chunker, error) {
	if cfg.MaxChars <= 0 {
		return nil, fmt.Errorf("chunk max chars must be positive, got %d", cfg.MaxChars)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative, got %d", cfg.Overlap)
	}
	if cfg.MinChars < 0 {
		return nil, fmt.Errorf("chunk min chars cannot be negative, got %d", cfg.MinChars)
	}
	if cfg.Overlap >= cfg.MaxChars {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than max chars %d", cfg.Overlap, cfg.MaxChars)
	}
	return &Chunker{cfg: cfg}, nil
}

// Chunk returns the windows of text in text order. Lengths are counted in
// runes. A result of zero chunks means the text is too small to index.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(NormalizeWhitespace(text))
	if len(runes) == 0 {
		return nil
	}

	if len(runes) <= c.cfg.MaxChars {
		if len(runes) < c.cfg.MinChars {
			return nil
		}
		return []string{string(runes)}
	}

	step := c.cfg.MaxChars - c.cfg.Overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + c.cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}
		if end-start >= c.cfg.MinChars {
			chunks = append(chunks, string(runes[start:end]))
		}
	}

	return chunks
}

// NormalizeWhitespace collapses every whitespace run to a single space and
// trims both ends.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
