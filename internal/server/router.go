package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/api"
	"github.com/unipilot/unipilot/internal/api/handlers"
	"github.com/unipilot/unipilot/internal/api/middleware"
)

const (
	maxJSONBodyBytes int64 = 1 << 20
	multipartSlack   int64 = 1 << 20
)

type RouterConfig struct {
	Logger          *zap.Logger
	MaxUploadBytes  int64
	ProjectHandler  *handlers.ProjectHandler
	SessionHandler  *handlers.SessionHandler
	ChatHandler     *handlers.ChatHandler
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = handlers.DefaultMaxUploadBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUserID)

		r.Route("/documents", func(r chi.Router) {
			r.With(middleware.MaxBodyBytes(maxUpload+multipartSlack)).Post("/upload", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
			r.Get("/{id}/download", cfg.DocumentHandler.DownloadURL)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodyBytes(maxJSONBodyBytes))

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", cfg.ProjectHandler.Create)
				r.Get("/", cfg.ProjectHandler.List)
				r.Get("/{id}", cfg.ProjectHandler.Get)
				r.Post("/{id}/search", cfg.SearchHandler.Search)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", cfg.SessionHandler.Create)
				r.Get("/", cfg.SessionHandler.List)
				r.Get("/{id}/anti-cheat", cfg.SessionHandler.AntiCheat)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Post("/", cfg.ChatHandler.Send)
				r.Get("/history", cfg.ChatHandler.History)
				r.Get("/export", cfg.ChatHandler.Export)
			})
		})
	})

	return r
}
