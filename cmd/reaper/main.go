// Command reaper runs a single lifecycle sweep and exits. It is meant for
// cron-style deployments where the server runs with REAPER_ENABLED=false.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/groupshare/internal/clock"
	"github.com/mmynk/groupshare/internal/config"
	"github.com/mmynk/groupshare/internal/lifecycle"
	"github.com/mmynk/groupshare/internal/metrics"
	"github.com/mmynk/groupshare/internal/reaper"
	"github.com/mmynk/groupshare/internal/storage/sqlite"
	"github.com/mmynk/groupshare/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Reaper pass failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := lifecycle.New(lifecycle.Config{
		Store:     store,
		Ownership: store,
		Users:     store,
		Clock:     clock.System{},
		Settings:  cfg.Settings(),
		Metrics:   metrics.New(prometheus.NewRegistry()),
		Logger:    logger,
	})

	lock, ledger, closeRedis, err := reaper.Open(ctx, cfg.RedisURL, cfg.ReaperLeaseTTL, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	runner := reaper.NewRunner(engine, reaper.Options{
		Lock:     lock,
		Ledger:   ledger,
		Notifier: reaper.LogNotifier{Logger: logger},
		Logger:   logger,
	})
	return runner.RunOnce(ctx)
}
