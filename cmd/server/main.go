package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/core"
	"github.com/JonMunkholm/claims/internal/logging"
	"github.com/JonMunkholm/claims/internal/storage"
	"github.com/JonMunkholm/claims/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal in containers; the environment is used as-is.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"store", cfg.Database.Driver,
		"import_batch_size", cfg.Import.BatchSize,
		"import_conflict_key", cfg.Import.ConflictKey,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open claim store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service, err := core.NewService(store, cfg)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// Seed import; the server stays up on failure so the data can be fixed
	// and reloaded through the API.
	if cfg.Import.OnStartup {
		result, err := service.Import(ctx, core.ImportOptions{
			Path:          cfg.Import.CSVPath,
			ClearExisting: cfg.Import.ClearOnStartup,
		})
		if err != nil {
			slog.Error("startup import failed", "path", cfg.Import.CSVPath, "error", err)
		} else {
			slog.Info("startup import finished", "imported", result.Imported, "batches", result.Batches)
		}
	}

	server := web.NewServer(service, cfg)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.ImportStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		server.Close()
		closeStore()
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
