package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EmbeddingColumnDimensions is the width of the document_chunks.embedding
// column created by the migrations.
const EmbeddingColumnDimensions = 1536

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	ChatModel           string        `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	GenerationTimeout   time.Duration `envconfig:"GENERATION_TIMEOUT" default:"30s"`
	EmbeddingTimeout    time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"15s"`

	ChunkMaxChars   int `envconfig:"CHUNK_MAX_CHARS" default:"1200"`
	ChunkOverlap    int `envconfig:"CHUNK_OVERLAP" default:"200"`
	ChunkMinChars   int `envconfig:"CHUNK_MIN_CHARS" default:"200"`
	RetrievalTopK   int `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	HistoryWindow   int `envconfig:"HISTORY_WINDOW" default:"10"`
	HistoryMaxChars int `envconfig:"HISTORY_MAX_CHARS" default:"800"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"unipilot-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Turns on the same session are serialized through Redis when set,
	// in-process otherwise.
	RedisURL       string        `envconfig:"REDIS_URL"`
	SessionLockTTL time.Duration `envconfig:"SESSION_LOCK_TTL" default:"2m"`

	StaleDocumentAfter time.Duration `envconfig:"STALE_DOCUMENT_AFTER" default:"15m"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("UNIPILOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.ChunkOverlap >= cfg.ChunkMaxChars {
		return nil, fmt.Errorf("invalid chunking config: overlap %d must be smaller than max chars %d", cfg.ChunkOverlap, cfg.ChunkMaxChars)
	}

	if cfg.EmbeddingDimensions != EmbeddingColumnDimensions {
		return nil, fmt.Errorf("invalid embedding config: dimensions %d must match the vector(%d) column", cfg.EmbeddingDimensions, EmbeddingColumnDimensions)
	}

	return &cfg, nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
