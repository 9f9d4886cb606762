package consumers

import (
	"context"

	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

// ConsumerService hosts the asynchronous side of the engine: refund
// settlement and customer notifications, fed by the booking events.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)

	notifyClient := external.NewNotifyClient(cfg.Notify)
	paymentClient := external.NewPaymentClient(cfg.Payment)

	handlers := NewHandlers(repos, notifyClient, paymentClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

// NATS returns the shared messaging client for background jobs.
func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

// Repos returns the shared repositories for background jobs.
func (cs *ConsumerService) Repos() *repository.Repositories {
	return cs.repos
}

// Start subscribes the queue-group consumers. Queue groups make each
// event land on exactly one consumer instance; redelivery after a
// missing ack gives at-least-once processing.
func (cs *ConsumerService) Start() error {
	logger.Get().Info("starting NATS consumers")

	_, err := cs.nats.SubscribeQueue(models.EventSeatsBooked, "consumers", cs.handlers.HandleSeatsBooked)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue(models.EventBookingCancelled, "consumers", cs.handlers.HandleBookingCancelled)
	if err != nil {
		return err
	}

	logger.Get().Info("all consumers started")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	logger.Get().Info("shutting down consumer service")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			logger.Get().Error("error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			logger.Get().Error("error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
