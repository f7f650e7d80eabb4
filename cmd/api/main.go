package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"webagency/api/internal/cache"
	"webagency/api/internal/config"
	"webagency/api/internal/database"
	"webagency/api/internal/handlers"
	"webagency/api/internal/jobs"
	"webagency/api/internal/log"
	"webagency/api/internal/repository"
	"webagency/api/internal/server"
	"webagency/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)
	if cfg.Security.JWTSecret == config.DevJWTSecret {
		logger.Warn().Msg("using development signing secret; set AGENCY_SECURITY_JWTSECRET before deploying")
	}

	ctx := context.Background()

	var (
		dbPool   *pgxpool.Pool
		users    repository.UserRepository
		sessions repository.SessionRepository
		uploads  repository.UploadRepository
	)
	switch cfg.Storage.Driver {
	case "memory":
		mem := repository.NewMemory()
		users = repository.MemoryUsers{Memory: mem}
		sessions = repository.MemorySessions{Memory: mem}
		uploads = repository.MemoryUploads{Memory: mem}
		logger.Warn().Msg("memory storage driver selected; data will not survive restarts")
	default:
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		users = repository.NewPostgresUserRepository(dbPool)
		sessions = repository.NewPostgresSessionRepository(dbPool)
		uploads = repository.NewPostgresUploadRepository(dbPool)
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		// the memory driver is meant to run without infrastructure; the
		// rate limiter already passes requests through on a nil client
		if cfg.Storage.Driver == "memory" {
			logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
			redisClient = nil
		} else {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, dbPool, redisClient, users, sessions, uploads, objectStore)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(sessions, cfg.Jobs.SessionSweepInterval, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	<-scheduler.Stop().Done()

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
