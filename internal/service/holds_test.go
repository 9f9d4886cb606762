package service

import (
	"context"
	"testing"
	"time"

	"cinebook/internal/config"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/inventory"
	"cinebook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() config.BookingPolicy {
	return config.BookingPolicy{
		HoldTTL:          10 * time.Minute,
		SweepInterval:    30 * time.Second,
		CancelCutoff:     2 * time.Hour,
		FullRefundWindow: 24 * time.Hour,
		PartialRefundPct: 50,
		FeePerSeat:       50,
		SeatMapCacheTTL:  5 * time.Second,
		IdempotencyTTL:   time.Hour,
	}
}

type holdFixture struct {
	svc       *HoldService
	store     *inventory.MemoryStore
	shows     *fakeShowStore
	publisher *fakePublisher
	cache     *fakeCache
}

func newHoldFixture(t *testing.T) *holdFixture {
	t.Helper()

	store := inventory.NewMemoryStore()
	store.AddShow(1, []string{"A1", "A2", "A3", "A4"})

	shows := newFakeShowStore()
	shows.addShow(&models.Show{ID: 1, Title: "Test Show", StartsAt: time.Now().Add(48 * time.Hour), TotalSeats: 4})

	publisher := &fakePublisher{}
	cache := newFakeCache()

	svc := NewHoldService(store, &memHoldStore{store: store}, shows, publisher, cache, testPolicy())
	return &holdFixture{svc: svc, store: store, shows: shows, publisher: publisher, cache: cache}
}

func TestHoldService_CreateHoldsSeats(t *testing.T) {
	f := newHoldFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, "alice", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1", "A2"}})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now().Add(9*time.Minute)))

	assert.Equal(t, models.SeatHeld, f.store.SeatStatus(1, "A1"))
	assert.Equal(t, models.SeatHeld, f.store.SeatStatus(1, "A2"))

	assert.Equal(t, []string{models.EventSeatsHeld}, f.publisher.subjects())
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestHoldService_CreateRejectsDuplicateSeats(t *testing.T) {
	f := newHoldFixture(t)

	_, err := f.svc.Create(context.Background(), "alice",
		&models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1", "A1"}})
	assert.Error(t, err)
}

func TestHoldService_CreateConflict(t *testing.T) {
	f := newHoldFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "alice", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1"}})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "bob", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1", "A2"}})
	conflict, ok := apperrors.AsSeatConflict(err)
	require.True(t, ok)
	assert.Equal(t, []string{"A1"}, conflict.SeatIDs)

	// No events or invalidations for the failed attempt.
	assert.Equal(t, []string{models.EventSeatsHeld}, f.publisher.subjects())
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestHoldService_CreateUnknownShow(t *testing.T) {
	f := newHoldFixture(t)

	_, err := f.svc.Create(context.Background(), "alice",
		&models.CreateHoldRequest{ShowID: 9, SeatIDs: []string{"A1"}})
	assert.ErrorIs(t, err, apperrors.ErrShowNotFound)
}

func TestHoldService_ReleaseChecksActor(t *testing.T) {
	f := newHoldFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, "alice", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1"}})
	require.NoError(t, err)

	err = f.svc.Release(ctx, "mallory", resp.Token)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, models.SeatHeld, f.store.SeatStatus(1, "A1"))

	require.NoError(t, f.svc.Release(ctx, "alice", resp.Token))
	assert.Equal(t, models.SeatAvailable, f.store.SeatStatus(1, "A1"))

	err = f.svc.Release(ctx, "alice", resp.Token)
	assert.ErrorIs(t, err, apperrors.ErrHoldNotFound)
}

func TestHoldService_ExtendPushesExpiry(t *testing.T) {
	f := newHoldFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, "alice", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1"}})
	require.NoError(t, err)

	extended, err := f.svc.Extend(ctx, "alice", resp.Token)
	require.NoError(t, err)
	assert.True(t, extended.ExpiresAt.After(resp.ExpiresAt) || extended.ExpiresAt.Equal(resp.ExpiresAt))

	_, err = f.svc.Extend(ctx, "bob", resp.Token)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestHoldService_SweepReleasesOnlyExpired(t *testing.T) {
	f := newHoldFixture(t)
	ctx := context.Background()

	expired, err := f.svc.Create(ctx, "alice", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1"}})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "bob", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A2"}})
	require.NoError(t, err)

	// Both holds share an expiry instant; push the second one out first,
	// then move the clock past the first hold's window.
	require.NoError(t, f.store.Extend(ctx, holdTokenForActor(t, f, "bob"), expired.ExpiresAt.Add(time.Hour)))
	f.svc.now = func() time.Time { return expired.ExpiresAt.Add(time.Second) }
	f.store.SetClock(f.svc.now)

	swept, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	assert.Equal(t, models.SeatAvailable, f.store.SeatStatus(1, "A1"))
	assert.Equal(t, models.SeatHeld, f.store.SeatStatus(1, "A2"))
}

// holdTokenForActor digs the live hold token for an actor out of the
// published events.
func holdTokenForActor(t *testing.T, f *holdFixture, actor string) string {
	t.Helper()
	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	for _, e := range f.publisher.events {
		if held, ok := e.data.(models.SeatsHeldEvent); ok && held.Actor == actor {
			return held.HoldToken
		}
	}
	t.Fatalf("no hold event for actor %s", actor)
	return ""
}

func TestHoldService_SweepIsEmptyWhenNothingExpired(t *testing.T) {
	f := newHoldFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "alice", &models.CreateHoldRequest{ShowID: 1, SeatIDs: []string{"A1"}})
	require.NoError(t, err)

	swept, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
	assert.Equal(t, models.SeatHeld, f.store.SeatStatus(1, "A1"))
}
