package inventory

import (
	"context"

	"cinebook/internal/models"
)

// Store is the seat inventory contract. Every operation is atomic across
// the full seat set: either all requested seats transition together with
// the hold bookkeeping, or none do. Implementations must use a
// compare-and-swap per (show, seat) or an equivalent serializable
// transaction, never a read-then-write with a gap.
//
// Conflicts are expected, frequent outcomes under load and are reported
// as *apperrors.SeatConflictError, not as infrastructure failures.
type Store interface {
	// Reserve transitions the seats AVAILABLE -> HELD and creates the
	// hold record in the same transaction. On contention it returns
	// *apperrors.SeatConflictError listing only the contested seats.
	Reserve(ctx context.Context, hold *models.Hold) error

	// Release deletes the hold (regardless of expiry) and transitions
	// its seats HELD -> AVAILABLE. Releasing a hold that no longer
	// exists returns apperrors.ErrHoldNotFound; callers on the sweep
	// path treat that as a no-op.
	Release(ctx context.Context, showID int64, seatIDs []string, holdToken string) error

	// Finalize claims the hold while it is still live (expires_at in the
	// future), transitions its seats HELD -> BOOKED and increments the
	// show's booked counter, all in one transaction. The hold-row claim
	// is the deterministic tie-break against the expiry sweep: if the
	// sweep already released the hold, Finalize returns
	// apperrors.ErrHoldExpired and must not touch any seat.
	Finalize(ctx context.Context, showID int64, seatIDs []string, holdToken string, bookingID int64) error

	// Unbook transitions booked seats back to AVAILABLE and decrements
	// the show's booked counter. Used by cancellation; bypasses the
	// hold path entirely.
	Unbook(ctx context.Context, showID int64, seatIDs []string, bookingID int64) error
}
