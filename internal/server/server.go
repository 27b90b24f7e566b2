// Package server hosts the HTTP surface: routing, problem responses,
// middleware, and static photo serving.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/avolkov/vitrine/internal/version"
)

// RouteRegistrar is implemented by components that expose HTTP routes.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options controls optional server behavior.
type Options struct {
	// UploadsDir, when non-empty, is served at /uploads/.
	UploadsDir string
	// RateLimit is requests per second across the API; zero disables limiting.
	RateLimit float64
	// RateBurst is the token-bucket burst size when RateLimit is set.
	RateBurst int
}

// Server is the catalog HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a Server, mounts core routes, and registers every provided
// component's routes on the shared mux.
func New(addr string, logger *zap.Logger, opts Options, registrars ...RouteRegistrar) *Server {
	mux := http.NewServeMux()

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withObservability(logger, withRateLimit(limiter, mux)),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.registerCoreRoutes(opts)
	for _, reg := range registrars {
		reg.RegisterRoutes(mux)
	}

	return s
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes(opts Options) {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	if opts.UploadsDir != "" {
		s.mux.Handle("GET /uploads/",
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Vitrine-Version", version.Short())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "vitrine",
		"version": version.Map(),
	})
}
