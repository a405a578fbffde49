// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/jsdeobfuscator/pkg/library"
	"github.com/kraklabs/jsdeobfuscator/pkg/offload"
	"github.com/kraklabs/jsdeobfuscator/pkg/pipeline"
)

// Server is the §6 HTTP surface, grounded on
// mihaisavezi-claude-code-open/internal/server.Server: a thin struct
// wrapping *http.Server plus the dependencies its handlers need, a
// ServeMux built once in New, and a graceful Start/Stop pair.
type Server struct {
	logger     *slog.Logger
	lib        *library.Library
	driver     *pipeline.Driver
	pool       *offload.Pool
	httpServer *http.Server
}

// New builds a Server and wires its routes. pool may be nil; it is kept on
// the Server but no handler submits to it, so every run executes on driver
// in the foreground.
func New(lib *library.Library, driver *pipeline.Driver, pool *offload.Pool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger.WithGroup("api"), lib: lib, driver: driver, pool: pool}
	mux := http.NewServeMux()
	s.routes(mux)
	s.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 30 * time.Second}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/transform/parse", s.handleParse)
	mux.HandleFunc("POST /api/transform/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/transform/format", s.handleFormat)
	mux.HandleFunc("POST /api/transform/analyze-scope", s.handleAnalyzeScope)
	mux.HandleFunc("POST /api/transform/run", s.handleRun)
	mux.HandleFunc("POST /api/transform/run-chain", s.handleRunChain)
	mux.HandleFunc("GET /api/transform/builtins", s.handleBuiltins)
	mux.HandleFunc("GET /api/transform/builtin-source/{id}", s.handleBuiltinSource)
	mux.HandleFunc("GET /api/transform/config-hints", s.handleConfigHints)

	registerBlobRoutes(mux, "/api/plugins", s.lib.Plugins, s.lib.FolderPlugins)
	registerBlobRoutes(mux, "/api/scripts", s.lib.Scripts, nil)

	mux.HandleFunc("GET /api/projects", s.handleProjectList)
	mux.HandleFunc("POST /api/projects", s.handleProjectCreate)
	mux.HandleFunc("GET /api/projects/{id}", s.handleProjectGet)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleProjectUpdate)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleProjectDelete)
	mux.HandleFunc("POST /api/projects/{id}/duplicate", s.handleProjectDuplicate)
	mux.HandleFunc("GET /api/projects/{id}/export", s.handleProjectExport)
	mux.HandleFunc("POST /api/projects/import", s.handleProjectImport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

// Start listens on addr, blocking until the context is cancelled, at which
// point it shuts the server down gracefully. Grounded on
// internal/server.Server.Start's goroutine-plus-signal-channel shape,
// generalized to a caller-supplied context instead of os/signal directly
// so cmd/jsdeob owns the signal wiring.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer.Addr = addr
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api.listen", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	}
}
