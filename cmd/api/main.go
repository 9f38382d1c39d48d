package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/cache"
	"github.com/SG-STD/ofox-backend/internal/config"
	"github.com/SG-STD/ofox-backend/internal/crashreport"
	"github.com/SG-STD/ofox-backend/internal/database"
	"github.com/SG-STD/ofox-backend/internal/handlers"
	"github.com/SG-STD/ofox-backend/internal/jobs"
	"github.com/SG-STD/ofox-backend/internal/log"
	"github.com/SG-STD/ofox-backend/internal/mail"
	"github.com/SG-STD/ofox-backend/internal/queue"
	"github.com/SG-STD/ofox-backend/internal/ratelimit"
	"github.com/SG-STD/ofox-backend/internal/repository"
	"github.com/SG-STD/ofox-backend/internal/server"
	"github.com/SG-STD/ofox-backend/internal/service"
	"github.com/SG-STD/ofox-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)
	boundary := crashreport.NewBoundary(
		cfg.CrashReport.AppName,
		crashreport.NewBotReporter(cfg.CrashReport, logger),
		logger,
		cfg.CrashReport.Timeout,
	)
	defer boundary.Recover("main")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	users := repository.NewUserRepository(dbPool)
	sessions := repository.NewSessionRepository(dbPool)
	pending := repository.NewPendingRepository(dbPool)
	appConfig := repository.NewConfigRepository(dbPool)
	audits := repository.NewAuditRepository(dbPool)
	chats := repository.NewChatRepository(dbPool)

	bg := service.NewBackground(10*time.Second, logger)
	boot := service.NewBootstrap(appConfig, logger)
	if err := boot.Ready(ctx); err != nil {
		logger.Warn().Err(err).Msg("encryption key not loaded yet; gated endpoints will retry")
	}
	auditor := service.NewAuditor(audits, boot, bg)

	authService := service.NewAuthService(users, sessions, auditor, bg, cfg.Security, logger)
	registration := service.NewRegistrationService(users, pending, mail.NewSender(cfg, logger), objectStore, service.RegistrationOptions{
		CodeTTL:    cfg.Verification.CodeTTL,
		BcryptCost: cfg.Security.BcryptCost,
	}, logger)
	profiles := service.NewProfileService(
		users,
		cache.NewProfileCache(redisClient, cfg.Security.ProfileCacheTTL),
		objectStore,
		auditor,
		bg,
		logger,
	)

	publisher := queue.NewPublisher(redisClient, cfg.Redis.Stream)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Deps{
		Auth:         authService,
		Registration: registration,
		Profiles:     profiles,
		Chats:        service.NewChatService(users, chats),
		Legal:        service.NewLegalService(appConfig),
		Bootstrap:    boot,
		Limiters: handlers.Limiters{
			Auth:         ratelimit.New(cfg.RateLimit, redisClient, "auth"),
			Verification: ratelimit.New(cfg.RateLimit, redisClient, "verification"),
			Data:         ratelimit.New(cfg.RateLimit, redisClient, "data"),
		},
		Checks: map[string]handlers.HealthCheck{
			"database": dbPool.Ping,
			"cache": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, publisher)

	scheduler := jobs.NewScheduler(publisher, jobs.Schedule{
		PurgePending:  cfg.Queue.PurgeSpec,
		PruneSessions: cfg.Queue.PruneSpec,
	}, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	boundary.Go("http", func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	})

	waitForShutdown(logger, httpServer, scheduler, bg, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, bg *service.Background, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop(5 * time.Second)
	}

	bg.Wait()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
