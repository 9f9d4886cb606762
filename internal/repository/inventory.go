package repository

import (
	"context"
	"fmt"
	"sort"

	"cinebook/internal/database"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"

	"github.com/lib/pq"
)

// InventoryRepository is the durable seat inventory store. Every public
// operation runs as a single transaction; seat transitions are
// compare-and-swap UPDATEs guarded by the current status (and hold
// token or booking id), verified by rows affected. There is no
// read-then-write gap anywhere on this path.
type InventoryRepository struct {
	db *database.DB
}

func NewInventoryRepository(db *database.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Reserve(ctx context.Context, hold *models.Hold) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertHold := `
		INSERT INTO holds (token, show_id, actor, seat_ids, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err = tx.QueryRowContext(ctx, insertHold,
		hold.Token, hold.ShowID, hold.Actor, pq.Array(hold.SeatIDs), hold.ExpiresAt,
	).Scan(&hold.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert hold: %w", err)
	}

	reserve := `
		UPDATE show_seats
		SET status = 'HELD', hold_token = $3, updated_at = NOW()
		WHERE show_id = $1 AND seat_id = ANY($2) AND status = 'AVAILABLE'`
	res, err := tx.ExecContext(ctx, reserve, hold.ShowID, pq.Array(hold.SeatIDs), hold.Token)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if int(affected) != len(hold.SeatIDs) {
		// rollback undoes any partial transition; report the contested
		// seats so the caller can re-pick
		conflicts, cerr := r.conflictingSeats(ctx, tx, hold.ShowID, hold.SeatIDs)
		if cerr != nil {
			return cerr
		}
		if len(conflicts) == 0 {
			return apperrors.ErrSeatNotFound
		}
		return &apperrors.SeatConflictError{SeatIDs: conflicts}
	}

	return tx.Commit()
}

func (r *InventoryRepository) conflictingSeats(ctx context.Context, tx querier, showID int64, seatIDs []string) ([]string, error) {
	query := `
		SELECT seat_id FROM show_seats
		WHERE show_id = $1 AND seat_id = ANY($2) AND status <> 'AVAILABLE'`
	rows, err := tx.QueryContext(ctx, query, showID, pq.Array(seatIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []string
	for rows.Next() {
		var seatID string
		if err := rows.Scan(&seatID); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, seatID)
	}
	sort.Strings(conflicts)
	return conflicts, rows.Err()
}

func (r *InventoryRepository) Release(ctx context.Context, showID int64, seatIDs []string, holdToken string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM holds WHERE token = $1`, holdToken)
	if err != nil {
		return fmt.Errorf("failed to delete hold: %w", err)
	}
	holdDeleted, err := res.RowsAffected()
	if err != nil {
		return err
	}

	release := `
		UPDATE show_seats
		SET status = 'AVAILABLE', hold_token = NULL, updated_at = NOW()
		WHERE show_id = $1 AND seat_id = ANY($2) AND status = 'HELD' AND hold_token = $3`
	res, err = tx.ExecContext(ctx, release, showID, pq.Array(seatIDs), holdToken)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	released, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if holdDeleted == 0 && released == 0 {
		return apperrors.ErrHoldNotFound
	}

	return tx.Commit()
}

func (r *InventoryRepository) Finalize(ctx context.Context, showID int64, seatIDs []string, holdToken string, bookingID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Claiming the live hold row decides the race against the expiry
	// sweep: exactly one of the two deletes it.
	res, err := tx.ExecContext(ctx,
		`DELETE FROM holds WHERE token = $1 AND expires_at > NOW()`, holdToken)
	if err != nil {
		return fmt.Errorf("failed to claim hold: %w", err)
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if claimed == 0 {
		return apperrors.ErrHoldExpired
	}

	finalize := `
		UPDATE show_seats
		SET status = 'BOOKED', hold_token = NULL, booking_id = $4, updated_at = NOW()
		WHERE show_id = $1 AND seat_id = ANY($2) AND status = 'HELD' AND hold_token = $3`
	res, err = tx.ExecContext(ctx, finalize, showID, pq.Array(seatIDs), holdToken, bookingID)
	if err != nil {
		return fmt.Errorf("failed to finalize seats: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(affected) != len(seatIDs) {
		// a live hold must back every one of its seats
		return apperrors.ErrInvariantViolation
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE shows SET booked_seats = booked_seats + $2, updated_at = NOW() WHERE id = $1`,
		showID, len(seatIDs))
	if err != nil {
		return fmt.Errorf("failed to update booked counter: %w", err)
	}

	return tx.Commit()
}

func (r *InventoryRepository) Unbook(ctx context.Context, showID int64, seatIDs []string, bookingID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	unbook := `
		UPDATE show_seats
		SET status = 'AVAILABLE', booking_id = NULL, updated_at = NOW()
		WHERE show_id = $1 AND seat_id = ANY($2) AND status = 'BOOKED' AND booking_id = $3`
	res, err := tx.ExecContext(ctx, unbook, showID, pq.Array(seatIDs), bookingID)
	if err != nil {
		return fmt.Errorf("failed to unbook seats: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(affected) != len(seatIDs) {
		return apperrors.ErrInvariantViolation
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE shows SET booked_seats = booked_seats - $2, updated_at = NOW() WHERE id = $1`,
		showID, len(seatIDs))
	if err != nil {
		return fmt.Errorf("failed to update booked counter: %w", err)
	}

	return tx.Commit()
}
