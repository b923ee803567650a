package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/config"
	"github.com/unipilot/unipilot/internal/database"
	"github.com/unipilot/unipilot/internal/lock"
	"github.com/unipilot/unipilot/internal/logging"
	"github.com/unipilot/unipilot/internal/openai"
	"github.com/unipilot/unipilot/internal/repository"
	"github.com/unipilot/unipilot/internal/service"
	"github.com/unipilot/unipilot/internal/storage"
)

var errOpenAINotConfigured = errors.New("UNIPILOT_OPENAI_API_KEY is required")

// app holds the dependency graph shared by serve, ingest and export
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool

	documentRepo *repository.DocumentRepository

	projects  *service.ProjectService
	sessions  *service.SessionService
	documents *service.DocumentService
	retrieval *service.RetrievalService
	chat      *service.ChatService

	closers []func()
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DatabaseMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// newApp wires repositories, gateways and services. The model gateways are
// built once here and injected everywhere.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if !cfg.HasOpenAI() {
		return nil, errOpenAINotConfigured
	}

	chunker, err := service.NewChunker(service.ChunkConfig{
		MaxChars: cfg.ChunkMaxChars,
		Overlap:  cfg.ChunkOverlap,
		MinChars: cfg.ChunkMinChars,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, pool: pool}
	a.closers = append(a.closers, pool.Close)
	logger.Info("connected to database")

	var blobs service.BlobStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info("document archive ready", zap.String("bucket", cfg.S3Bucket))
		blobs = s3Client
	}

	var locker service.SessionLocker
	if cfg.HasRedis() {
		redisLocker, err := lock.NewRedisLockerFromURL(ctx, cfg.RedisURL, cfg.SessionLockTTL, logger.Named("lock"))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create session locker: %w", err)
		}
		a.closers = append(a.closers, func() { _ = redisLocker.Close() })
		logger.Info("session turns serialized through redis")
		locker = redisLocker
	} else {
		locker = lock.NewMemoryLocker()
	}

	provider := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
	})
	embedder := service.NewEmbeddingGateway(provider, cfg.EmbeddingTimeout, cfg.EmbeddingDimensions)
	generator := service.NewGenerationGateway(provider, cfg.GenerationTimeout)

	projectRepo := repository.NewProjectRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	eventRepo := repository.NewCheatEventRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	a.documentRepo = repository.NewDocumentRepository(pool)

	uuidGen := &service.DefaultUUIDGenerator{}

	a.projects = service.NewProjectServiceWithUUIDGen(projectRepo, uuidGen)
	a.sessions = service.NewSessionServiceWithUUIDGen(sessionRepo, projectRepo, eventRepo, uuidGen)
	a.retrieval = service.NewRetrievalService(embedder, chunkRepo, cfg.RetrievalTopK, logger)
	a.documents = service.NewDocumentService(service.DocumentServiceConfig{
		Documents: a.documentRepo,
		Chunks:    chunkRepo,
		Projects:  projectRepo,
		Embedder:  embedder,
		Chunker:   chunker,
		Blobs:     blobs,
		UUIDGen:   uuidGen,
		Logger:    logger,
	})
	a.chat = service.NewChatService(service.ChatServiceConfig{
		Sessions:        sessionRepo,
		Messages:        messageRepo,
		Events:          eventRepo,
		Retrieval:       a.retrieval,
		Generator:       generator,
		Locker:          locker,
		UUIDGen:         uuidGen,
		Logger:          logger,
		TopK:            cfg.RetrievalTopK,
		HistoryWindow:   cfg.HistoryWindow,
		HistoryMaxChars: cfg.HistoryMaxChars,
	})

	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
