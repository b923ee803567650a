package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	openai "github.com/sashabaranov/go-openai"

	"github.com/unipilot/unipilot/internal/domain"
)

const (
	// DefaultEmbeddingModel is used when no embedding model is configured
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultChatModel is used when no chat model is configured
	DefaultChatModel = openai.GPT4oMini
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrEmptyResponse is returned when the provider answers without content
	ErrEmptyResponse = domain.NewDomainError(domain.ErrCodeUpstream, "provider returned an empty response")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// ChatAPI defines the interface for chat completions
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, system, prompt string) (string, error)
}

// Client wraps an OpenAI-compatible API
type Client struct {
	embeddings EmbeddingAPI
	chat       ChatAPI
	chatModel  string
}

type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIAdapter{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: openai.EmbeddingModel(cfg.embeddingModel()),
		chatModel:      cfg.chatModel(),
	}
}

// CreateEmbeddings calls the embeddings endpoint
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	return resp.Data[0].Embedding, nil
}

// CreateChatCompletion calls the chat completions endpoint with a system and
// a user message
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// Config holds the provider settings. BaseURL points the client at any
// OpenAI-compatible endpoint, such as Gemini's.
type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

func (c Config) chatModel() string {
	if c.ChatModel == "" {
		return DefaultChatModel
	}
	return c.ChatModel
}

func (c Config) embeddingModel() string {
	if c.EmbeddingModel == "" {
		return string(DefaultEmbeddingModel)
	}
	return c.EmbeddingModel
}

// NewClient creates a new client using default models.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	adapter := NewOpenAIAdapter(cfg)
	return &Client{
		embeddings: adapter,
		chat:       adapter,
		chatModel:  cfg.chatModel(),
	}
}

// ChatModel returns the model name used for completions
func (c *Client) ChatModel() string {
	return c.chatModel
}

// Embed generates an embedding for the given text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.embeddings.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, wrapProviderError("create embedding", err)
	}

	return embedding, nil
}

// Complete generates a chat completion for prompt under the system message
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyText
	}

	text, err := c.chat.CreateChatCompletion(ctx, system, prompt)
	if err != nil {
		return "", wrapProviderError("create chat completion", err)
	}

	return text, nil
}

// wrapProviderError marks provider outages as upstream failures: transport
// errors, 5xx, 408 and 429 responses. Other provider errors, such as a
// rejected key or a malformed request, stay unclassified. Context errors are
// returned as is.
func wrapProviderError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if domain.CodeOf(err) != "" {
		return err
	}

	if isUpstreamFailure(err) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "failed to "+op, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

func isUpstreamFailure(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return upstreamStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return upstreamStatus(reqErr.HTTPStatusCode)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func upstreamStatus(code int) bool {
	return code >= http.StatusInternalServerError ||
		code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout
}
