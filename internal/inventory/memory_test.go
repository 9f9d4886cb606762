package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(showID int64, seatIDs ...string) *MemoryStore {
	store := NewMemoryStore()
	store.AddShow(showID, seatIDs)
	return store
}

func hold(showID int64, token, actor string, ttl time.Duration, seatIDs ...string) *models.Hold {
	return &models.Hold{
		Token:     token,
		ShowID:    showID,
		Actor:     actor,
		SeatIDs:   seatIDs,
		ExpiresAt: time.Now().Add(ttl),
	}
}

func TestReserve_TransitionsSeatsToHeld(t *testing.T) {
	store := newTestStore(1, "A1", "A2", "A3")
	ctx := context.Background()

	err := store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1", "A2"))
	require.NoError(t, err)

	assert.Equal(t, models.SeatHeld, store.SeatStatus(1, "A1"))
	assert.Equal(t, models.SeatHeld, store.SeatStatus(1, "A2"))
	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A3"))
}

func TestReserve_ConflictListsOnlyContestedSeats(t *testing.T) {
	store := newTestStore(1, "A1", "A2", "A3")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A2")))

	err := store.Reserve(ctx, hold(1, "tok-2", "bob", time.Minute, "A1", "A2", "A3"))
	conflict, ok := apperrors.AsSeatConflict(err)
	require.True(t, ok, "expected seat conflict, got %v", err)
	assert.Equal(t, []string{"A2"}, conflict.SeatIDs)

	// No partial reservation: the uncontested seats stay AVAILABLE.
	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A1"))
	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A3"))
}

func TestReserve_UnknownSeat(t *testing.T) {
	store := newTestStore(1, "A1")
	ctx := context.Background()

	err := store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1", "Z9"))
	assert.ErrorIs(t, err, apperrors.ErrSeatNotFound)
	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A1"))
}

func TestReserve_UnknownShow(t *testing.T) {
	store := newTestStore(1, "A1")
	ctx := context.Background()

	err := store.Reserve(ctx, hold(42, "tok-1", "alice", time.Minute, "A1"))
	assert.ErrorIs(t, err, apperrors.ErrShowNotFound)
}

// Two parties racing for an overlapping seat set: exactly one wins, the
// loser gets a conflict, and no seat ends up double-held.
func TestReserve_MutualExclusionUnderConcurrency(t *testing.T) {
	const workers = 32
	store := newTestStore(1, "A1", "A2")
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			token := fmt.Sprintf("tok-%d", w)
			actor := fmt.Sprintf("actor-%d", w)
			results[w] = store.Reserve(ctx, hold(1, token, actor, time.Minute, "A1", "A2"))
		}(w)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			_, ok := apperrors.AsSeatConflict(err)
			assert.True(t, ok, "loser must get a seat conflict, got %v", err)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestRelease_ReturnsSeatsAndIsIdempotentOnSeats(t *testing.T) {
	store := newTestStore(1, "A1", "A2")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1", "A2")))
	require.NoError(t, store.Release(ctx, 1, []string{"A1", "A2"}, "tok-1"))

	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A1"))
	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A2"))

	// Second release reports the hold as gone.
	err := store.Release(ctx, 1, []string{"A1", "A2"}, "tok-1")
	assert.ErrorIs(t, err, apperrors.ErrHoldNotFound)
}

func TestRelease_DoesNotTouchSeatsHeldByOthers(t *testing.T) {
	store := newTestStore(1, "A1", "A2")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1")))
	require.NoError(t, store.Reserve(ctx, hold(1, "tok-2", "bob", time.Minute, "A2")))

	require.NoError(t, store.Release(ctx, 1, []string{"A1"}, "tok-1"))
	assert.Equal(t, models.SeatHeld, store.SeatStatus(1, "A2"))
}

func TestFinalize_BooksSeatsAndBumpsCounter(t *testing.T) {
	store := newTestStore(1, "A1", "A2", "A3")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1", "A2")))
	require.NoError(t, store.Finalize(ctx, 1, []string{"A1", "A2"}, "tok-1", 77))

	assert.Equal(t, models.SeatBooked, store.SeatStatus(1, "A1"))
	assert.Equal(t, models.SeatBooked, store.SeatStatus(1, "A2"))
	assert.Equal(t, 2, store.BookedCount(1))

	// The claimed hold is gone; finalizing again reports expiry.
	err := store.Finalize(ctx, 1, []string{"A1", "A2"}, "tok-1", 77)
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)
}

func TestFinalize_ExpiredHoldRefused(t *testing.T) {
	store := newTestStore(1, "A1")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1")))

	// Advance the clock past the hold window.
	store.SetClock(func() time.Time { return time.Now().Add(2 * time.Minute) })

	err := store.Finalize(ctx, 1, []string{"A1"}, "tok-1", 77)
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)
	assert.Equal(t, models.SeatHeld, store.SeatStatus(1, "A1"), "refused finalize must not touch seats")
	assert.Equal(t, 0, store.BookedCount(1))
}

// A finalize that trips the seat-consistency check must change nothing:
// the hold stays claimable and the held seats keep their state.
func TestFinalize_InvariantViolationLeavesHoldIntact(t *testing.T) {
	store := newTestStore(1, "A1", "A2")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1")))

	// A2 was never part of the hold, so the check fails.
	err := store.Finalize(ctx, 1, []string{"A1", "A2"}, "tok-1", 77)
	assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)

	_, err = store.GetHold(ctx, "tok-1")
	require.NoError(t, err, "failed finalize must not consume the hold")
	assert.Equal(t, models.SeatHeld, store.SeatStatus(1, "A1"))
	assert.Equal(t, 0, store.BookedCount(1))

	// The hold is still usable for its own seats.
	require.NoError(t, store.Finalize(ctx, 1, []string{"A1"}, "tok-1", 77))
}

// The sweep and a submit race for the same expired hold: whichever
// deletes the hold record wins, and the other side backs off cleanly.
func TestFinalize_RaceWithSweepIsExclusive(t *testing.T) {
	for round := 0; round < 50; round++ {
		store := newTestStore(1, "A1")
		ctx := context.Background()

		require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1")))

		var wg sync.WaitGroup
		var finalizeErr, releaseErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			finalizeErr = store.Finalize(ctx, 1, []string{"A1"}, "tok-1", 77)
		}()
		go func() {
			defer wg.Done()
			releaseErr = store.Release(ctx, 1, []string{"A1"}, "tok-1")
		}()
		wg.Wait()

		switch {
		case finalizeErr == nil:
			assert.ErrorIs(t, releaseErr, apperrors.ErrHoldNotFound)
			assert.Equal(t, models.SeatBooked, store.SeatStatus(1, "A1"))
		case releaseErr == nil:
			assert.ErrorIs(t, finalizeErr, apperrors.ErrHoldExpired)
			assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A1"))
		default:
			t.Fatalf("both sides failed: finalize=%v release=%v", finalizeErr, releaseErr)
		}
	}
}

func TestUnbook_ReleasesBookedSeatsAndCounter(t *testing.T) {
	store := newTestStore(1, "A1", "A2")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1", "A2")))
	require.NoError(t, store.Finalize(ctx, 1, []string{"A1", "A2"}, "tok-1", 77))
	require.NoError(t, store.Unbook(ctx, 1, []string{"A1", "A2"}, 77))

	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A1"))
	assert.Equal(t, models.SeatAvailable, store.SeatStatus(1, "A2"))
	assert.Equal(t, 0, store.BookedCount(1))
}

func TestUnbook_WrongBookingIsInvariantViolation(t *testing.T) {
	store := newTestStore(1, "A1")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1")))
	require.NoError(t, store.Finalize(ctx, 1, []string{"A1"}, "tok-1", 77))

	err := store.Unbook(ctx, 1, []string{"A1"}, 99)
	assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)
	assert.Equal(t, models.SeatBooked, store.SeatStatus(1, "A1"))
}

func TestListExpiredAndExtend(t *testing.T) {
	store := newTestStore(1, "A1", "A2")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1")))
	require.NoError(t, store.Reserve(ctx, hold(1, "tok-2", "bob", time.Hour, "A2")))

	future := time.Now().Add(10 * time.Minute)
	expired, err := store.ListExpired(ctx, future, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "tok-1", expired[0].Token)

	// Extending the live hold pushes it past the same horizon.
	require.NoError(t, store.Extend(ctx, "tok-2", time.Now().Add(2*time.Hour)))

	// An expired hold cannot be extended.
	store.SetClock(func() time.Time { return time.Now().Add(5 * time.Minute) })
	err = store.Extend(ctx, "tok-1", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)
}

// Booked seats released by cancellation can immediately be held and
// booked by someone else.
func TestSeatLifecycleAfterCancellation(t *testing.T) {
	store := newTestStore(1, "A1")
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-1", "alice", time.Minute, "A1")))
	require.NoError(t, store.Finalize(ctx, 1, []string{"A1"}, "tok-1", 1))
	require.NoError(t, store.Unbook(ctx, 1, []string{"A1"}, 1))

	require.NoError(t, store.Reserve(ctx, hold(1, "tok-2", "bob", time.Minute, "A1")))
	require.NoError(t, store.Finalize(ctx, 1, []string{"A1"}, "tok-2", 2))
	assert.Equal(t, models.SeatBooked, store.SeatStatus(1, "A1"))
	assert.Equal(t, 1, store.BookedCount(1))
}
