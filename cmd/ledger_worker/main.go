package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/openledger-app/openledger/internal/core/services"
	"github.com/openledger-app/openledger/internal/jobs"
	"github.com/openledger-app/openledger/internal/notify"
	"github.com/openledger-app/openledger/internal/platform/config"
	"github.com/openledger-app/openledger/internal/repositories/database/pgsql"
	"github.com/openledger-app/openledger/pkg/database"
)

// The worker owns the scheduled auto-reversal sweep: it runs the asynq server
// with the sweep handler, registers the recurring cron task, and enqueues one
// catch-up sweep at startup so entries that came due while the worker was
// down are reversed promptly.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	provider := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(
		provider.Repos,
		provider.Accounts,
		provider.Periods,
		provider.Audit,
		notify.NewSlogNotifier(),
	)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:    redisOpts,
		Logger:       logger,
		SweepHandler: jobs.NewSweepHandler(serviceContainer.Reversal, logger),
		SweepCron:    cfg.SweepCron,
	})
	if err != nil {
		logger.Error("Failed to build worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client := jobs.NewClient(redisOpts)
	defer client.Close()
	if _, err := client.EnqueueSweep(context.Background(), jobs.SweepPayload{}); err != nil {
		logger.Warn("Failed to enqueue catch-up sweep", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker starting", slog.String("redis_addr", cfg.RedisAddr), slog.String("sweep_cron", cfg.SweepCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Worker exited.")
}
