// Package server exposes the estimation pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Diyadey08/Mordex/internal/domain"
	"github.com/Diyadey08/Mordex/internal/server/handler"
	"github.com/Diyadey08/Mordex/internal/server/middleware"
	"github.com/Diyadey08/Mordex/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit requests per client per RateWindow; zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers. Settlement is
// optional and its routes are skipped when nil.
type Handlers struct {
	Health     *handler.HealthHandler
	Estimate   *handler.EstimateHandler
	History    *handler.HistoryHandler
	Settlement *handler.SettlementHandler
}

// Server is the HTTP + WebSocket API server for the estimation service.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (rate limiting, auth, logging, CORS) applied. limiter
// may be nil; so may wsHub and optional handlers.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Estimation pipeline.
	mux.HandleFunc("POST /api/estimate", handlers.Estimate.Estimate)

	// Estimate history.
	if handlers.History != nil {
		mux.HandleFunc("GET /api/estimates/recent", handlers.History.ListRecent)
		mux.HandleFunc("GET /api/estimates/{id}", handlers.History.GetByID)
	}

	// Settlement contract state.
	if handlers.Settlement != nil {
		mux.HandleFunc("GET /api/settlement/balance", handlers.Settlement.Balance)
		mux.HandleFunc("GET /api/settlement/status", handlers.Settlement.Status)
		mux.HandleFunc("GET /api/settlement/calldata", handlers.Settlement.Calldata)
	}

	// WebSocket feed of completed estimates.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
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
