package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/health-package-engine/internal/api"
	"github.com/terra-clan/health-package-engine/internal/assessment"
	"github.com/terra-clan/health-package-engine/internal/cleanup"
	"github.com/terra-clan/health-package-engine/internal/config"
	"github.com/terra-clan/health-package-engine/internal/health"
	"github.com/terra-clan/health-package-engine/internal/storage"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(os.Stdout)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	slog.Info("starting health-package-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	if err := migrateDatabase(initCtx, cfg); err != nil {
		return err
	}

	eng, err := loadEngine(initCtx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load engine: %w", err)
	}

	repo, err := openStore(initCtx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open assessment store: %w", err)
	}

	registry := health.NewRegistry(2 * time.Second)
	if repo != nil {
		registry.Register(cfg.Store.Backend, repo)
	}

	service := assessment.NewService(eng.scorer, eng.builder, repo)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if service.StorageEnabled() {
		cleanup.NewCleaner(service, cfg.Cleanup.Interval, cfg.Cleanup.Retention).Start(ctx)
	}

	server := api.NewServer(cfg.Server, service, eng.catalog, registry)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("HTTP server error", "error", err)
		cancel()
		closeStore(repo)
		return err
	}

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	closeStore(repo)

	slog.Info("health-package-engine stopped")
	return nil
}

func closeStore(repo storage.Repository) {
	if repo == nil {
		return
	}
	if err := repo.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}
}
