// Package server exposes the coordinator's command protocol over local HTTP,
// so page scripts and other tools can drive the same session the CLI uses.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/server/middleware"
	"github.com/jonathan/resume-autofill/internal/server/ratelimit"
)

// DefaultAddr binds to loopback only.
const DefaultAddr = "127.0.0.1:8765"

const maxBodyBytes = 1 << 20

// Dispatcher runs one command. *coordinator.Coordinator satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd coordinator.Command) coordinator.Result
}

// Config holds server configuration
type Config struct {
	Addr           string
	Token          string            // Bearer token required on /api routes; empty disables auth
	AllowedOrigins []string          // CORS origins; empty allows any
	RateLimit      *ratelimit.Config // nil uses ratelimit.DefaultConfig
	Metrics        http.Handler      // Served on GET /metrics when set
	Logger         *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	dispatcher  Dispatcher
	rateLimiter *ratelimit.Limiter
	origins     map[string]bool
	logger      *slog.Logger
}

// New creates a new server instance
func New(d Dispatcher, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		dispatcher:  d,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		origins:     make(map[string]bool),
		logger:      log.With("component", "server"),
	}
	for _, o := range cfg.AllowedOrigins {
		s.origins[o] = true
	}

	auth := middleware.BearerAuth(cfg.Token)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /api/status", auth(http.HandlerFunc(s.handleStatus)))
	mux.Handle("POST /api/command", auth(http.HandlerFunc(s.handleCommand)))
	mux.Handle("GET /api/preferences", auth(http.HandlerFunc(s.handleGetPreferences)))
	mux.Handle("PUT /api/preferences/{key}", auth(http.HandlerFunc(s.handleSetPreference)))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second, // PDF downloads go through the coordinator
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	defer s.rateLimiter.Stop()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Close releases the rate limiter without serving. Serve calls it on return.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}
