// Package api is the HTTP/SSE front-end of the bridge.
//
// It exposes the tool catalog, tool dispatch, workflow execution and
// configuration listing to chat UIs and agent runtimes. Requests carry
// correlation headers (X-Request-ID, X-Action-ID) and select a NiFi server
// with X-Nifi-Server-Id; errors are RFC 7807 problem documents.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nifiops/nifibridge/internal/logger"
	"github.com/nifiops/nifibridge/pkg/config"
	"github.com/nifiops/nifibridge/pkg/metrics"
	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/tools"
	"github.com/nifiops/nifibridge/pkg/workflow"
)

// Deps bundles the process-wide collaborators the front-end serves.
type Deps struct {
	// Config supplies the NiFi server list and request limits.
	Config *config.Config

	// Tools is the dispatch registry, read-only after startup.
	Tools *tools.Registry

	// Workflows holds the registered workflow definitions.
	Workflows *workflow.Registry

	// Metrics records dispatch activity; nil disables collection.
	Metrics *metrics.DispatchMetrics

	// NiFiMetrics is attached to every request-scoped NiFi client; nil
	// disables collection.
	NiFiMetrics nifi.Metrics
}

// Server is the bridge HTTP server.
//
// The server is created stopped; Start blocks until the context ends, then
// shuts down gracefully. Stop is safe to call concurrently with Start.
type Server struct {
	server          *http.Server
	cfg             config.ServerConfig
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
}

// NewServer creates the HTTP server for the given dependencies.
func NewServer(deps Deps) *Server {
	cfg := deps.Config.Server

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(deps),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	shutdownTimeout := deps.Config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = config.DefaultShutdownTimeout
	}

	return &Server{server: server, cfg: cfg, shutdownTimeout: shutdownTimeout}
}

// Start serves requests until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.cfg.Port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// The cancelled ctx would abort shutdown immediately; give in-flight
		// requests a bounded grace period instead.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.KeyError, err.Error())
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.cfg.Port
}
