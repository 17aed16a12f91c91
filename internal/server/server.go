package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config holds HTTP server configuration
type Config struct {
	Host        string
	Port        int
	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// DefaultConfig returns a config suitable for local development
func DefaultConfig() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8080,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

// Server wraps the HTTP server hosting the row-store API
type Server struct {
	config     Config
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server serving the given handler
func New(config Config, handler http.Handler, logger *slog.Logger) *Server {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	return &Server{
		config: config,
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     handler,
			ReadTimeout: config.ReadTimeout,
			IdleTimeout: config.IdleTimeout,
			// No write timeout: the events endpoint holds its
			// response open for the lifetime of the subscription
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

// Start begins listening and blocks until the server stops
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
