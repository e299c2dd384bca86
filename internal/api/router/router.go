package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/callsift/callsift/internal/conflict"
	httpmiddleware "github.com/callsift/callsift/internal/http/middleware"
	"github.com/callsift/callsift/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	ConflictHandler *conflict.Handler
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/events/check", cfg.ConflictHandler.CheckDuplicate)
		r.Route("/conflicts", func(r chi.Router) {
			r.Post("/detect", cfg.ConflictHandler.DetectConflicts)
			r.Post("/resolve", cfg.ConflictHandler.ResolveConflicts)
			r.Get("/metrics", cfg.ConflictHandler.GetMetrics)
		})
	})

	return r
}
