package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openrecon/kite/internal/alerts"
	"github.com/openrecon/kite/internal/domain"
	"github.com/openrecon/kite/internal/variations"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, searcher Searcher, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *alerts.Engine, adapters []domain.SourceAdapter, gen *variations.Generator, version string) *Server {
	handler := NewHandler(searcher, repo, cache, bus, engine, adapters, gen, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.Health)
		r.Get("/stats", handler.Stats)

		// Search pipeline
		r.Post("/detect", handler.Detect)
		r.Post("/variations", handler.Variations)
		r.Post("/search", handler.Search)

		// Investigation history
		r.Get("/investigations", handler.ListInvestigations)
		r.Get("/investigations/{id}", handler.GetInvestigation)
		r.Get("/investigations/{id}/data", handler.ListCollectedData)
		r.Get("/investigations/{id}/alerts", handler.ListInvestigationAlerts)

		// Alert rule management
		r.Get("/alert-rules", handler.ListAlertRules)
		r.Get("/alert-rules/{id}", handler.GetAlertRule)
		r.Post("/alert-rules", handler.CreateAlertRule)
		r.Put("/alert-rules/{id}", handler.UpdateAlertRule)
		r.Post("/alert-rules/reload", handler.ReloadAlertRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
