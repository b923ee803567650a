package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/api/handlers"
	"github.com/unipilot/unipilot/internal/config"
	"github.com/unipilot/unipilot/internal/database"
	"github.com/unipilot/unipilot/internal/jobs"
	"github.com/unipilot/unipilot/internal/server"
	"github.com/unipilot/unipilot/internal/telemetry"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the UniPilot API server and the stale document sweeper",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides UNIPILOT_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	shutdownTelemetry, err := telemetry.Init(telemetryConfig(cfg), logger)
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		status, err := database.MigrateUp(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if err := logMigrationStatus(logger, status); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	router := server.NewRouter(server.RouterConfig{
		Logger:          logger,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		ProjectHandler:  handlers.NewProjectHandler(a.projects),
		SessionHandler:  handlers.NewSessionHandler(a.sessions),
		ChatHandler:     handlers.NewChatHandler(a.chat),
		DocumentHandler: handlers.NewDocumentHandler(a.documents, cfg.MaxUploadBytes),
		SearchHandler:   handlers.NewSearchHandler(a.projects, a.retrieval),
	})

	sweeper := jobs.NewStaleDocumentSweeper(a.documentRepo, cfg.StaleDocumentAfter, logger)
	worker := jobs.NewWorker(sweeper, sweepInterval, logger.Named("sweeper"))
	go worker.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			worker.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// telemetryConfig samples every trace in development and 10% elsewhere.
func telemetryConfig(cfg *config.Config) telemetry.Config {
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	return telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	}
}

func logMigrationStatus(logger *zap.Logger, status *database.MigrationStatus) error {
	if status.Dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", status.Version)
	}
	if status.Version == 0 {
		logger.Info("migrations: no migrations applied")
		return nil
	}
	logger.Info("migrations: database is up to date", zap.Uint("version", status.Version))
	return nil
}
