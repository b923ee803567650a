package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/unipilot/unipilot/internal/domain"
)

// EmbeddingProvider turns text into a vector
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionProvider generates text from a system message and a prompt
type CompletionProvider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	ChatModel() string
}

// Embedder is what retrieval and ingestion need from the embedding gateway
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator is what the turn orchestrator needs from the generation gateway
type Generator interface {
	Generate(ctx context.Context, prompt string) (*GenerationResult, error)
}

// callWithTimeout runs fn in its own goroutine and gives up on it once the
// deadline fires. An abandoned call keeps running until fn notices its
// context is done.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// classifyProviderError maps err to exactly one of the TIMEOUT, UPSTREAM
// or UNEXPECTED model errors.
func classifyProviderError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.NewDomainErrorWithCause(domain.ErrCodeTimeout, domain.ErrModelTimeout.Message, err)
	case domain.CodeOf(err) == domain.ErrCodeUpstream:
		return domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, domain.ErrModelUpstream.Message, err)
	default:
		return domain.NewDomainErrorWithCause(domain.ErrCodeUnexpected, domain.ErrModelUnexpected.Message, err)
	}
}

// EmbeddingGateway wraps the embedding provider with a timeout and vector
// validation
type EmbeddingGateway struct {
	provider   EmbeddingProvider
	timeout    time.Duration
	dimensions int
}

// NewEmbeddingGateway creates an EmbeddingGateway. A dimensions value of
// zero disables the length check.
func NewEmbeddingGateway(provider EmbeddingProvider, timeout time.Duration, dimensions int) *EmbeddingGateway {
	return &EmbeddingGateway{provider: provider, timeout: timeout, dimensions: dimensions}
}

// Embed returns a validated embedding for text. Invalid vectors are
// upstream errors and are never padded or zero-filled.
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := callWithTimeout(ctx, g.timeout, func(ctx context.Context) ([]float32, error) {
		return g.provider.Embed(ctx, text)
	})
	if err != nil {
		return nil, classifyProviderError(ctx, err)
	}

	if err := g.validate(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (g *EmbeddingGateway) validate(vec []float32) error {
	if len(vec) == 0 {
		return domain.ErrInvalidEmbedding
	}
	if g.dimensions > 0 && len(vec) != g.dimensions {
		return domain.ErrInvalidEmbedding
	}
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.ErrInvalidEmbedding
		}
	}
	return nil
}

// GenerationResult is a format-guarded model answer
type GenerationResult struct {
	Text  string
	Model string
}

// GenerationGateway wraps the completion provider with a timeout and the
// answer format guard
type GenerationGateway struct {
	provider CompletionProvider
	timeout  time.Duration
	system   string
	guard    FormatGuard
}

// NewGenerationGateway creates a GenerationGateway using the UniPilot system
// prompt and format guard.
func NewGenerationGateway(provider CompletionProvider, timeout time.Duration) *GenerationGateway {
	return &GenerationGateway{
		provider: provider,
		timeout:  timeout,
		system:   SystemPrompt,
		guard:    DefaultFormatGuard(),
	}
}

// Generate runs one completion. The returned text always satisfies the
// format guard.
func (g *GenerationGateway) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	raw, err := callWithTimeout(ctx, g.timeout, func(ctx context.Context) (string, error) {
		return g.provider.Complete(ctx, g.system, prompt)
	})
	if err != nil {
		return nil, classifyProviderError(ctx, err)
	}

	return &GenerationResult{
		Text:  g.guard.Ensure(raw),
		Model: g.provider.ChatModel(),
	}, nil
}
