package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/garrethdev/coastal-elements/internal/api"
	"github.com/garrethdev/coastal-elements/internal/config"
	"github.com/garrethdev/coastal-elements/internal/crm"
	"github.com/garrethdev/coastal-elements/internal/database"
	"github.com/garrethdev/coastal-elements/internal/logging"
	"github.com/garrethdev/coastal-elements/internal/server"
)

// snapshotMaxAge bounds how long an idle visitor's auth snapshot survives.
const snapshotMaxAge = 90 * 24 * time.Hour

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	apiClient := api.NewClient(cfg.BackendURL,
		api.WithTimeout(cfg.APITimeout),
		api.WithExportTimeout(cfg.ExportTimeout),
	)
	crmClient := crm.NewClient(cfg.HubSpotToken)

	srv, err := server.New(db, server.Config{
		BaseURL:   cfg.BaseURL,
		APIClient: apiClient,
		CRMClient: crmClient,
	}, logger)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.ExportTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SnapshotStore().DeleteStale(snapshotMaxAge); err != nil {
					slog.Error("cleanup stale snapshots", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up stale snapshots", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("coastal elements starting", "addr", ":"+cfg.Port, "backend", cfg.BackendURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
