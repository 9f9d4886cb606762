package service

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/inventory"
	"cinebook/internal/models"
)

// In-memory collaborators for the service tests. The inventory itself
// is the real MemoryStore; everything else is a small fake recording
// its calls.

type memHoldStore struct {
	store *inventory.MemoryStore
}

func (m *memHoldStore) GetByToken(ctx context.Context, token string) (*models.Hold, error) {
	return m.store.GetHold(ctx, token)
}

func (m *memHoldStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Hold, error) {
	return m.store.ListExpired(ctx, now, limit)
}

func (m *memHoldStore) Extend(ctx context.Context, token string, expiresAt time.Time) error {
	return m.store.Extend(ctx, token, expiresAt)
}

type fakeShowStore struct {
	shows  map[int64]*models.Show
	prices map[string]int64
}

func newFakeShowStore() *fakeShowStore {
	return &fakeShowStore{
		shows:  make(map[int64]*models.Show),
		prices: make(map[string]int64),
	}
}

func (f *fakeShowStore) addShow(show *models.Show) {
	f.shows[show.ID] = show
}

func (f *fakeShowStore) Create(_ context.Context, show *models.Show, rows, rowSeats int) error {
	show.ID = int64(len(f.shows) + 1)
	show.TotalSeats = rows * rowSeats
	f.shows[show.ID] = show
	return nil
}

func (f *fakeShowStore) GetByID(_ context.Context, id int64) (*models.Show, error) {
	show, ok := f.shows[id]
	if !ok {
		return nil, apperrors.ErrShowNotFound
	}
	return show, nil
}

func (f *fakeShowStore) List(_ context.Context) ([]models.Show, error) {
	var shows []models.Show
	for _, show := range f.shows {
		shows = append(shows, *show)
	}
	return shows, nil
}

func (f *fakeShowStore) SeatMap(_ context.Context, _ int64) ([]models.SeatMapItem, error) {
	return nil, nil
}

func (f *fakeShowStore) SeatPrices(_ context.Context, _ int64, seatIDs []string) (map[string]int64, error) {
	prices := make(map[string]int64, len(seatIDs))
	for _, id := range seatIDs {
		price, ok := f.prices[id]
		if !ok {
			return nil, apperrors.ErrSeatNotFound
		}
		prices[id] = price
	}
	return prices, nil
}

func (f *fakeShowStore) CountStates(_ context.Context, _ int64) (int, int, int, error) {
	return 0, 0, 0, nil
}

type fakeBookingStore struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*models.Booking
	byKey    map[string]int64
	codes    map[string]struct{}
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings: make(map[int64]*models.Booking),
		byKey:    make(map[string]int64),
		codes:    make(map[string]struct{}),
	}
}

func (f *fakeBookingStore) Create(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.codes[booking.Code]; dup {
		return errors.New("duplicate booking code")
	}
	f.nextID++
	booking.ID = f.nextID
	booking.CreatedAt = time.Now()
	copied := *booking
	f.bookings[booking.ID] = &copied
	f.codes[booking.Code] = struct{}{}
	if booking.IdempotencyKey != nil {
		f.byKey[*booking.IdempotencyKey] = booking.ID
	}
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) GetByIdempotencyKey(_ context.Context, key string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byKey[key]
	if !ok {
		return nil, nil
	}
	copied := *f.bookings[id]
	return &copied, nil
}

func (f *fakeBookingStore) GetSeats(_ context.Context, bookingID int64) ([]models.BookingSeat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	return booking.Seats, nil
}

func (f *fakeBookingStore) MarkConfirmed(_ context.Context, id int64, txnID string) error {
	return f.setStatus(id, models.BookingConfirmed, &txnID, nil)
}

func (f *fakeBookingStore) MarkCancelled(_ context.Context, id int64, refund int64) error {
	return f.setStatus(id, models.BookingCancelled, nil, &refund)
}

func (f *fakeBookingStore) MarkExpired(_ context.Context, id int64) error {
	return f.setStatus(id, models.BookingExpired, nil, nil)
}

func (f *fakeBookingStore) setStatus(id int64, status string, txnID *string, refund *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	booking.Status = status
	if txnID != nil {
		booking.PaymentTxnID = txnID
	}
	if refund != nil {
		booking.RefundAmount = refund
	}
	return nil
}

func (f *fakeBookingStore) ListByActor(_ context.Context, actor string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Booking
	for _, booking := range f.bookings {
		if booking.Actor == actor {
			result = append(result, *booking)
		}
	}
	return result, nil
}

type fakePromoStore struct {
	promos map[string]*models.PromoCode
}

func newFakePromoStore() *fakePromoStore {
	return &fakePromoStore{promos: make(map[string]*models.PromoCode)}
}

func (f *fakePromoStore) GetActiveByCode(_ context.Context, code string) (*models.PromoCode, error) {
	promo, ok := f.promos[code]
	if !ok || !promo.Active {
		return nil, apperrors.ErrPromoInvalid
	}
	return promo, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	subject string
	data    interface{}
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{subject: subject, data: data})
	return nil
}

func (f *fakePublisher) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	subjects := make([]string, len(f.events))
	for i, e := range f.events {
		subjects[i] = e.subject
	}
	return subjects
}

type fakeCache struct {
	mu            sync.Mutex
	invalidations int
	claims        map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{claims: make(map[string]bool)}
}

func (f *fakeCache) GetSeatMap(_ context.Context, _ int64) ([]models.SeatMapItem, error) {
	return nil, nil
}

func (f *fakeCache) SetSeatMap(_ context.Context, _ int64, _ []models.SeatMapItem, _ time.Duration) error {
	return nil
}

func (f *fakeCache) InvalidateSeatMap(_ context.Context, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
	return nil
}

func (f *fakeCache) ClaimIdempotencyKey(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeCache) ReleaseIdempotencyKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, key)
	return nil
}

type fakePayment struct {
	mu      sync.Mutex
	outcome string
	reason  string
	err     error
	charges int
	voids   []string
	refunds []int64
}

func newFakePayment() *fakePayment {
	return &fakePayment{outcome: external.ChargeSuccess}
}

func (f *fakePayment) Charge(_ context.Context, _ int64, orderID, _, _ string) (*external.ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges++
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome != external.ChargeSuccess {
		return &external.ChargeResult{Outcome: f.outcome, Reason: f.reason}, nil
	}
	return &external.ChargeResult{Outcome: external.ChargeSuccess, TransactionID: "txn-" + orderID}, nil
}

func (f *fakePayment) VoidCharge(_ context.Context, transactionID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voids = append(f.voids, transactionID)
	return nil
}

func (f *fakePayment) Refund(_ context.Context, _ string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, amount)
	return nil
}
