package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/SG-STD/ofox-backend/internal/cache"
	"github.com/SG-STD/ofox-backend/internal/config"
	"github.com/SG-STD/ofox-backend/internal/crashreport"
	"github.com/SG-STD/ofox-backend/internal/database"
	"github.com/SG-STD/ofox-backend/internal/log"
	"github.com/SG-STD/ofox-backend/internal/queue"
	"github.com/SG-STD/ofox-backend/internal/repository"
	"github.com/SG-STD/ofox-backend/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)
	reporter := crashreport.NewBotReporter(cfg.CrashReport, logger)
	if !reporter.Enabled() {
		logger.Warn().Msg("crash report delivery disabled: bot token or chat id not set")
	}
	boundary := crashreport.NewBoundary(cfg.CrashReport.AppName+" worker", reporter, logger, cfg.CrashReport.Timeout)
	defer boundary.Recover("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	processor := tasks.NewProcessor(
		reporter,
		repository.NewPendingRepository(dbPool),
		repository.NewSessionRepository(dbPool),
		tasks.Options{
			PendingRetention: cfg.Verification.PendingRetention,
			SessionIdleTTL:   cfg.Security.SessionIdleTTL,
		},
		logger,
	)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Queue.ClaimInterval,
		logger,
		processor,
	)

	done := make(chan struct{})
	boundary.Go("consumer", func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	})

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
