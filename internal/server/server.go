// Package server exposes the operator HTTP API: quote ingestion, venue heat
// inspection and feedback, and promo conversion.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arbiterlabs/surescan/internal/server/handler"
	"github.com/arbiterlabs/surescan/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port   int
	APIKey string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health *handler.HealthHandler
	Quotes *handler.QuotesHandler
	Heat   *handler.HeatHandler
	Promo  *handler.PromoHandler
}

// Server is the headless HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (logging, auth) applied.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required; auth middleware skips when disabled,
	// monitors should use an unauthenticated prober when a key is set).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Quote ingestion.
	mux.HandleFunc("POST /api/quotes", handlers.Quotes.SubmitQuotes)

	// Venue heat.
	mux.HandleFunc("GET /api/heat", handlers.Heat.ListHeat)
	mux.HandleFunc("GET /api/heat/{venue}", handlers.Heat.GetHeat)
	mux.HandleFunc("POST /api/heat/{venue}/cool", handlers.Heat.ForceCool)
	mux.HandleFunc("POST /api/heat/{venue}/record", handlers.Heat.RecordOutcome)

	// Promo conversion.
	mux.HandleFunc("POST /api/promo/convert", handlers.Promo.Convert)

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
