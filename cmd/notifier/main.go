package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"tutoria/auth/internal/cache"
	"tutoria/auth/internal/config"
	"tutoria/auth/internal/database"
	"tutoria/auth/internal/log"
	"tutoria/auth/internal/queue"
	"tutoria/auth/internal/repository"
	"tutoria/auth/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	processor := tasks.NewProcessor(
		repository.NewUserRepository(dbPool),
		cfg.Notify.PendingMaxAge,
		logger,
	)
	consumer := queue.NewConsumer(
		redisClient,
		cfg.Notify.Stream,
		cfg.Notify.Group,
		cfg.Notify.Consumer,
		cfg.Notify.ClaimInterval,
		logger,
		processor,
	)

	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("consumer group setup failed")
	}

	go func() {
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
