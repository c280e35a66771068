// Package httpd implements the HTTP server command for the threadsync
// service.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/threadsync/cmd/common"
	"github.com/jonesrussell/threadsync/internal/api"
	"github.com/jonesrussell/threadsync/internal/logger"
	"github.com/jonesrussell/threadsync/internal/search"
	"github.com/jonesrussell/threadsync/internal/store"
	"github.com/jonesrussell/threadsync/internal/syncer"
	"github.com/jonesrussell/threadsync/internal/watch"
	"github.com/jonesrussell/threadsync/internal/watch/seeds"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
	defaultStartupTimeout   = 30 * time.Second
	defaultShutdownTimeout  = 30 * time.Second
)

// Command returns the httpd command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Run the sync API server and watcher scheduler",
		Long: `Start the HTTP API server together with the watcher scheduler.
Watchers registered through the API, or seeded from the configured seed
file, sync their threads on schedule until the server shuts down.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Start()
		},
	}
}

// Start starts the HTTP server and runs until interrupted.
// It handles graceful shutdown on SIGINT or SIGTERM signals.
func Start() error {
	// Phase 1: Initialize dependencies (config + logger)
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), defaultStartupTimeout)
	defer cancel()

	// Phase 2: Open the store
	st, err := common.OpenStore(startCtx, deps)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// Phase 3: Optional content search index. The index is a rebuildable
	// mirror, so the server stays useful without it.
	searchSvc, err := common.OpenSearch(startCtx, deps)
	if err != nil {
		deps.Logger.Warn("Search index unavailable, continuing without search", "error", err)
		searchSvc = nil
	}

	// Phase 4: Sync engine
	engine := common.NewSyncEngine(deps, st, searchSvc)

	// Phase 5: Watcher registry + seed file
	registry, err := watch.NewRegistry(engine, &deps.Config.Schedule, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher registry: %w", err)
	}
	registerSeedWatchers(deps, registry)

	// Phase 6: Start HTTP server
	server, errChan := startHTTPServer(deps, engine, registry, st, searchSvc)

	// Phase 7: Run server until interrupted
	return runServerUntilInterrupt(deps.Logger, server, registry, errChan)
}

// registerSeedWatchers loads the optional seed file and registers its
// watchers. Seed problems are logged, never fatal.
func registerSeedWatchers(deps common.CommandDeps, registry *watch.Registry) {
	seedFile := deps.Config.Schedule.SeedFile
	if seedFile == "" {
		return
	}

	seedList, err := seeds.NewLoader(seedFile).LoadSeeds()
	if err != nil {
		deps.Logger.Warn("Failed to load watcher seeds",
			"seed_file", seedFile,
			"error", err)
		return
	}

	registry.RegisterSeeds(seedList)
}

// startHTTPServer builds the router and starts the listener.
// Returns the server and an error channel for listener failures.
func startHTTPServer(
	deps common.CommandDeps,
	engine *syncer.Orchestrator,
	registry *watch.Registry,
	st *store.Store,
	searchSvc *search.Service,
) (*http.Server, chan error) {
	handler := api.NewHandler(engine, registry, st, deps.Logger)
	if searchSvc != nil {
		handler.SetSearcher(searchSvc)
	}

	router := api.SetupRouter(deps.Logger, handler)
	server := api.NewServer(&deps.Config.Server, router)

	deps.Logger.Info("Starting HTTP server", "addr", deps.Config.Server.Address)
	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return server, errChan
}

// runServerUntilInterrupt runs the server until interrupted by signal or error.
func runServerUntilInterrupt(
	log logger.Interface,
	server *http.Server,
	registry *watch.Registry,
	errChan chan error,
) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case serverErr := <-errChan:
		log.Error("Server error", "error", serverErr)
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		return shutdownServer(log, server, registry, sig)
	}
}

// shutdownServer performs graceful shutdown of the server and scheduler.
// The HTTP listener closes first so no new syncs can be triggered, then
// the registry drains in-flight watcher runs.
func shutdownServer(
	log logger.Interface,
	server *http.Server,
	registry *watch.Registry,
	sig os.Signal,
) error {
	log.Info("Shutdown signal received", "signal", sig.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	log.Info("Stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop server", "error", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	log.Info("Draining watcher scheduler")
	if err := registry.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to drain watchers", "error", err)
		return fmt.Errorf("failed to drain watchers: %w", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
