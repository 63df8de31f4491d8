// Package server exposes the indexing and retrieval core over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/coderadar/internal/config"
	"github.com/sevigo/coderadar/internal/gitgateway"
	"github.com/sevigo/coderadar/internal/initializer"
	"github.com/sevigo/coderadar/internal/registry"
)

// Deps bundles the components a request handler needs, assembled once at
// startup by cmd/server/main.go and shared across every request.
type Deps struct {
	Config      *config.Config
	Registry    registry.Store
	StateCache  *registry.StateCache
	Discovery   *registry.Discovery
	Initializer *initializer.Initializer
	Logger      *slog.Logger

	// OpenGateway opens a gitgateway.Gateway for repoPath, a seam so tests
	// can substitute a fake without touching the filesystem or git CLI.
	OpenGateway func(ctx context.Context, repoPath string) (*gitgateway.Gateway, error)
}

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	ctx    context.Context
	server *http.Server
	logger *slog.Logger
}

// NewServer builds the HTTP server and its router from deps.
func NewServer(ctx context.Context, deps *Deps) *Server {
	router := NewRouter(deps)

	return &Server{
		ctx: ctx,
		server: &http.Server{
			Addr:         ":" + deps.Config.Server.Port,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // streaming index endpoints run far longer than a fixed write deadline
			IdleTimeout:  120 * time.Second,
		},
		logger: deps.Logger,
	}
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server with a 30-second timeout.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
