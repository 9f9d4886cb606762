package repository

import (
	"context"
	"database/sql"

	"cinebook/internal/database"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"
)

type PromoRepository struct {
	db *database.DB
}

func NewPromoRepository(db *database.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

// GetActiveByCode returns the promo if it exists and is active;
// otherwise apperrors.ErrPromoInvalid. Inactive codes are not
// distinguished from unknown ones.
func (r *PromoRepository) GetActiveByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	promo := &models.PromoCode{}
	query := `
		SELECT code, percent_off, active
		FROM promo_codes
		WHERE code = $1 AND active = TRUE`

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&promo.Code,
		&promo.PercentOff,
		&promo.Active,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrPromoInvalid
	}

	return promo, err
}
