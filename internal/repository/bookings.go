package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cinebook/internal/database"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"

	"github.com/lib/pq"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a PENDING booking with its per-seat price snapshot in
// one transaction. A duplicate code or idempotency key surfaces as a
// pq unique violation for the caller to retry or resolve.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO bookings (code, show_id, actor, status, subtotal, fee, discount, total_amount, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insert,
		booking.Code,
		booking.ShowID,
		booking.Actor,
		booking.Status,
		booking.Subtotal,
		booking.Fee,
		booking.Discount,
		booking.TotalAmount,
		booking.IdempotencyKey,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	for i := range booking.Seats {
		seat := &booking.Seats[i]
		seat.BookingID = booking.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO booking_seats (booking_id, show_id, seat_id, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			seat.BookingID, seat.ShowID, seat.SeatID, seat.Price,
		).Scan(&seat.ID)
		if err != nil {
			return fmt.Errorf("failed to insert booking seat: %w", err)
		}
	}

	return tx.Commit()
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// failure, used to retry booking code generation.
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := r.scanOne(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	booking.Seats, err = r.GetSeats(ctx, booking.ID)
	return booking, err
}

// GetByIdempotencyKey looks up a prior submission with the same key.
// sql.ErrNoRows maps to (nil, nil): no prior attempt.
func (r *BookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	booking, err := r.scanOne(ctx, `WHERE idempotency_key = $1`, key)
	if err == apperrors.ErrBookingNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	booking.Seats, err = r.GetSeats(ctx, booking.ID)
	return booking, err
}

func (r *BookingRepository) scanOne(ctx context.Context, where string, arg interface{}) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, code, show_id, actor, status, subtotal, fee, discount, total_amount,
		       refund_amount, payment_txn_id, idempotency_key, created_at, updated_at
		FROM bookings ` + where

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&booking.ID,
		&booking.Code,
		&booking.ShowID,
		&booking.Actor,
		&booking.Status,
		&booking.Subtotal,
		&booking.Fee,
		&booking.Discount,
		&booking.TotalAmount,
		&booking.RefundAmount,
		&booking.PaymentTxnID,
		&booking.IdempotencyKey,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrBookingNotFound
	}

	return booking, err
}

func (r *BookingRepository) GetSeats(ctx context.Context, bookingID int64) ([]models.BookingSeat, error) {
	query := `
		SELECT id, booking_id, show_id, seat_id, price
		FROM booking_seats
		WHERE booking_id = $1
		ORDER BY seat_id`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.BookingSeat
	for rows.Next() {
		var seat models.BookingSeat
		err := rows.Scan(&seat.ID, &seat.BookingID, &seat.ShowID, &seat.SeatID, &seat.Price)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

// MarkConfirmed records the payment transaction and flips PENDING to
// CONFIRMED. The status guard keeps the transition one-shot.
func (r *BookingRepository) MarkConfirmed(ctx context.Context, id int64, paymentTxnID string) error {
	return r.transition(ctx, id,
		`UPDATE bookings SET status = 'CONFIRMED', payment_txn_id = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'PENDING'`, paymentTxnID)
}

// MarkCancelled flips CONFIRMED to CANCELLED and records the refund due.
func (r *BookingRepository) MarkCancelled(ctx context.Context, id int64, refundAmount int64) error {
	return r.transition(ctx, id,
		`UPDATE bookings SET status = 'CANCELLED', refund_amount = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'CONFIRMED'`, refundAmount)
}

// MarkExpired closes out a PENDING booking whose payment or hold fell
// through. Terminal state; no seats are attached to it anymore.
func (r *BookingRepository) MarkExpired(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = 'EXPIRED', updated_at = NOW()
		 WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) transition(ctx context.Context, id int64, query string, arg interface{}) error {
	res, err := r.db.ExecContext(ctx, query, id, arg)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) ListByActor(ctx context.Context, actor string) ([]models.Booking, error) {
	query := `
		SELECT id, code, show_id, actor, status, subtotal, fee, discount, total_amount,
		       refund_amount, payment_txn_id, idempotency_key, created_at, updated_at
		FROM bookings
		WHERE actor = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, actor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.Code,
			&booking.ShowID,
			&booking.Actor,
			&booking.Status,
			&booking.Subtotal,
			&booking.Fee,
			&booking.Discount,
			&booking.TotalAmount,
			&booking.RefundAmount,
			&booking.PaymentTxnID,
			&booking.IdempotencyKey,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
