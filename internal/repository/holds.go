package repository

import (
	"context"
	"database/sql"
	"time"

	"cinebook/internal/database"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"

	"github.com/lib/pq"
)

// HoldRepository reads and extends hold records. Creation and deletion
// always go through InventoryRepository so they share a transaction
// with the seat transitions.
type HoldRepository struct {
	db *database.DB
}

func NewHoldRepository(db *database.DB) *HoldRepository {
	return &HoldRepository{db: db}
}

func (r *HoldRepository) GetByToken(ctx context.Context, token string) (*models.Hold, error) {
	hold := &models.Hold{}
	query := `
		SELECT token, show_id, actor, seat_ids, expires_at, created_at
		FROM holds
		WHERE token = $1`

	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&hold.Token,
		&hold.ShowID,
		&hold.Actor,
		pq.Array(&hold.SeatIDs),
		&hold.ExpiresAt,
		&hold.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrHoldNotFound
	}

	return hold, err
}

// ListExpired returns holds past their window, oldest first, capped at
// limit so one sweep pass stays bounded.
func (r *HoldRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Hold, error) {
	query := `
		SELECT token, show_id, actor, seat_ids, expires_at, created_at
		FROM holds
		WHERE expires_at <= $1
		ORDER BY expires_at
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []models.Hold
	for rows.Next() {
		var hold models.Hold
		err := rows.Scan(
			&hold.Token,
			&hold.ShowID,
			&hold.Actor,
			pq.Array(&hold.SeatIDs),
			&hold.ExpiresAt,
			&hold.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		holds = append(holds, hold)
	}

	return holds, rows.Err()
}

// Extend pushes the expiry of a still-live hold. The expires_at guard in
// the UPDATE makes extending an already-expired hold fail even if the
// sweep has not collected it yet.
func (r *HoldRepository) Extend(ctx context.Context, token string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holds SET expires_at = $2 WHERE token = $1 AND expires_at > NOW()`,
		token, expiresAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM holds WHERE token = $1)`, token).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrHoldExpired
		}
		return apperrors.ErrHoldNotFound
	}
	return nil
}
