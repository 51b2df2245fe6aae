package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/covid-trends/internal/adapter/http"
	"github.com/couchcryptid/covid-trends/internal/config"
	"github.com/couchcryptid/covid-trends/internal/dataset"
	"github.com/couchcryptid/covid-trends/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	loader := dataset.NewLoader(logger, metrics)
	store := dataset.NewStore(dataset.FileSource{}, loader, logger, metrics)

	// The one blocking read of the data source for this process. Every API
	// request afterwards is served from the memoized table.
	if _, err := store.Table(cfg.DataPath); err != nil {
		logger.Error("initial dataset load failed", "error", err, "path", cfg.DataPath)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, store, cfg.DataPath, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
