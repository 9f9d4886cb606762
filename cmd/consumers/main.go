package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinebook/cmd/consumers/jobs"
	"cinebook/internal/cache"
	"cinebook/internal/config"
	"cinebook/internal/consumers"
	"cinebook/internal/logger"
	"cinebook/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Override NATS client ID for consumers
	cfg.NATS.ClientID = "cinebook-consumers"

	logger.Get().Info("starting consumers service")

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		logger.Fatal("failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(); err != nil {
		logger.Fatal("failed to start consumers", "error", err)
	}

	redisClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to Redis", "error", err)
	}

	repos := consumerService.Repos()
	holdService := service.NewHoldService(
		repos.Inventory, repos.Holds, repos.Shows,
		consumerService.NATS(), redisClient, cfg.Booking,
	)

	sweepJob := jobs.NewHoldExpirationJob(holdService, cfg.Booking.SweepInterval)
	sweepJob.Start(context.Background())

	logger.Get().Info("consumers service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("shutting down consumers service")

	sweepJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(ctx); err != nil {
		logger.Get().Error("error during shutdown", "error", err)
	}

	if err := redisClient.Close(); err != nil {
		logger.Get().Error("error closing Redis connection", "error", err)
	}

	logger.Get().Info("consumers service stopped")
}
