package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nDmitry/stackfeed/internal/app"
	"github.com/nDmitry/stackfeed/internal/cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the REST API server
type Server struct {
	mux       *http.ServeMux
	server    *http.Server
	logger    *slog.Logger
	crawler   Crawler
	generator Generator
	feeds     cache.Cache
	health    Health
	port      string
}

// NewServer creates a new REST API server. Rendered feeds are kept in feeds.
func NewServer(c Crawler, g Generator, feeds cache.Cache, health Health, port string) *Server {
	mux := http.NewServeMux()

	server := &Server{
		mux:       mux,
		logger:    app.Logger(),
		crawler:   c,
		generator: g,
		feeds:     feeds,
		health:    health,
		port:      port,
		server: &http.Server{
			Addr:              ":" + port,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      5 * time.Minute, // A crawl waits on the outbound throttle per post
			IdleTimeout:       120 * time.Second,
		},
	}

	server.registerHandlers()

	return server
}

// registerHandlers sets up all API routes
func (s *Server) registerHandlers() {
	NewSubstackHandler(s.mux, s.crawler, s.generator, s.feeds, s.health)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the routes wrapped in middleware
func (s *Server) Handler() http.Handler {
	return Logger(s.mux)
}

// Run starts the server and blocks until the context is canceled
func (s *Server) Run(ctx context.Context) error {
	s.server.Handler = s.Handler()

	// Set BaseContext to pass the parent context
	s.server.BaseContext = func(_ net.Listener) context.Context { return ctx }

	s.server.RegisterOnShutdown(func() {
		s.logger.Info("Server is shutting down...")
	})

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server", "port", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited gracefully")

	return nil
}
