package service

import (
	"context"
	"time"

	"cinebook/internal/cache"
	"cinebook/internal/config"
	"cinebook/internal/external"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/refund"
	"cinebook/internal/repository"
)

// The services program against narrow store interfaces so the in-memory
// inventory backs the unit tests. The Postgres repositories satisfy the
// same contracts in production.

type showStore interface {
	Create(ctx context.Context, show *models.Show, rows, rowSeats int) error
	GetByID(ctx context.Context, id int64) (*models.Show, error)
	List(ctx context.Context) ([]models.Show, error)
	SeatMap(ctx context.Context, showID int64) ([]models.SeatMapItem, error)
	SeatPrices(ctx context.Context, showID int64, seatIDs []string) (map[string]int64, error)
	CountStates(ctx context.Context, showID int64) (available, held, booked int, err error)
}

type holdStore interface {
	GetByToken(ctx context.Context, token string) (*models.Hold, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Hold, error)
	Extend(ctx context.Context, token string, expiresAt time.Time) error
}

type bookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)
	GetSeats(ctx context.Context, bookingID int64) ([]models.BookingSeat, error)
	MarkConfirmed(ctx context.Context, id int64, paymentTxnID string) error
	MarkCancelled(ctx context.Context, id int64, refundAmount int64) error
	MarkExpired(ctx context.Context, id int64) error
	ListByActor(ctx context.Context, actor string) ([]models.Booking, error)
}

type promoStore interface {
	GetActiveByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

type publisher interface {
	Publish(subject string, data interface{}) error
}

type seatMapCache interface {
	GetSeatMap(ctx context.Context, showID int64) ([]models.SeatMapItem, error)
	SetSeatMap(ctx context.Context, showID int64, items []models.SeatMapItem, ttl time.Duration) error
	InvalidateSeatMap(ctx context.Context, showID int64) error
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

type paymentGateway interface {
	Charge(ctx context.Context, amount int64, orderID, method, idempotencyKey string) (*external.ChargeResult, error)
	VoidCharge(ctx context.Context, transactionID, reason string) error
	Refund(ctx context.Context, transactionID string, amount int64) error
}

type Services struct {
	Shows    *ShowService
	Holds    *HoldService
	Bookings *BookingService
}

func NewServices(
	repos *repository.Repositories,
	natsClient *messaging.NATSClient,
	cacheClient *cache.Client,
	paymentClient *external.PaymentClient,
	policy config.BookingPolicy,
) *Services {
	showService := NewShowService(repos.Shows, cacheClient, policy)
	holdService := NewHoldService(repos.Inventory, repos.Holds, repos.Shows, natsClient, cacheClient, policy)
	bookingService := NewBookingService(
		repos.Inventory, repos.Holds, repos.Bookings, repos.Shows, repos.Promos,
		paymentClient, natsClient, cacheClient,
		refund.NewCalculator(policy), policy,
	)

	return &Services{
		Shows:    showService,
		Holds:    holdService,
		Bookings: bookingService,
	}
}
