package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zxc05896/snap-engine/pkg/api"
	"github.com/zxc05896/snap-engine/pkg/client"
	"github.com/zxc05896/snap-engine/pkg/config"
	"github.com/zxc05896/snap-engine/pkg/engine"
	"github.com/zxc05896/snap-engine/pkg/extractor"
	"github.com/zxc05896/snap-engine/pkg/logger"
	"github.com/zxc05896/snap-engine/pkg/metadata"
	"github.com/zxc05896/snap-engine/pkg/pool"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("configuration error", "msg", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Debug)
	started := time.Now()

	httpClient, err := client.New(cfg.SocketTimeoutSec)
	if err != nil {
		slog.Error("http client init failed", "msg", err)
		os.Exit(1)
	}

	workers := pool.New(cfg.Workers, cfg.QueueSize)
	eng := engine.New(
		extractor.NewYtDlp(cfg),
		workers,
		&metadata.Resolver{Client: httpClient},
	)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: api.NewServer(cfg, eng, started).Router(),
	}

	go func() {
		slog.Info("server starting",
			"addr", cfg.Addr(),
			"workers", cfg.Workers,
			"queue", cfg.QueueSize,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server crashed", "msg", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	// Stop accepting HTTP first, then let in-flight extractions drain.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("http shutdown incomplete", "msg", err)
	}
	if err := workers.Shutdown(ctx); err != nil {
		slog.Warn("worker pool drain incomplete", "msg", err)
	}

	slog.Info("stopped", "uptime", time.Since(started).Round(time.Second))
}
