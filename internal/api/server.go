// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	handler "github.com/newthinker/sentinel/internal/api/handler/api"
	"github.com/newthinker/sentinel/internal/api/middleware"
	"github.com/newthinker/sentinel/internal/api/response"
	"github.com/newthinker/sentinel/internal/metrics"
)

// App is the part of app.App the HTTP surface serves.
type App interface {
	handler.SignalService
	handler.AnalysisApp
	GetStats() map[string]any
}

// Dependencies holds the components the routes are wired to. Stream and
// Metrics are optional.
type Dependencies struct {
	App     App
	Stream  http.Handler
	Metrics *metrics.Registry
}

// Server represents the HTTP server for sentinel
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	deps       Dependencies
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.App == nil {
		return nil, fmt.Errorf("api server requires an app")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
		deps:   deps,
	}
	s.setupRoutes(cfg)

	var h http.Handler = mux
	h = metrics.LoggingMiddleware(logger)(h)
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	protect := func(f http.HandlerFunc) http.Handler { return auth(f) }

	signals := handler.NewSignalsHandler(s.deps.App)
	analysis := handler.NewAnalysisHandler(s.deps.App)

	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	s.mux.Handle("GET /api/v1/analysis/{symbol}", protect(analysis.Get))
	s.mux.Handle("GET /api/v1/performance", protect(analysis.Performance))
	s.mux.Handle("GET /api/v1/signals", protect(signals.List))
	s.mux.Handle("GET /api/v1/signals/{id}", protect(signals.Get))
	s.mux.Handle("POST /api/v1/signals/{id}/cancel", protect(signals.Cancel))

	if s.deps.Stream != nil {
		s.mux.Handle("GET /api/v1/stream", auth(s.deps.Stream))
	}
	if s.deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, s.deps.Metrics.Handler())
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"app":    s.deps.App.GetStats(),
	})
}
