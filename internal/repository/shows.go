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

// querier is the subset of sql.Tx / sql.DB the repositories need for
// read helpers that run either inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type ShowRepository struct {
	db *database.DB
}

func NewShowRepository(db *database.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

// Create inserts the show, generates the screen's seat grid when it does
// not exist yet, and seeds one AVAILABLE show_seats row per seat.
func (r *ShowRepository) Create(ctx context.Context, show *models.Show, rows, rowSeats int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertShow := `
		INSERT INTO shows (screen_id, title, starts_at, base_price, total_seats)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insertShow,
		show.ScreenID, show.Title, show.StartsAt, show.BasePrice,
	).Scan(&show.ID, &show.CreatedAt, &show.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert show: %w", err)
	}

	var seatCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE screen_id = $1`, show.ScreenID).Scan(&seatCount)
	if err != nil {
		return err
	}

	if seatCount == 0 && rows > 0 && rowSeats > 0 {
		for row := 1; row <= rows; row++ {
			tier, delta := tierForRow(row, rows)
			for seat := 1; seat <= rowSeats; seat++ {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO seats (screen_id, row_number, seat_number, tier, price_delta)
					VALUES ($1, $2, $3, $4, $5)`,
					show.ScreenID, row, seat, tier, delta)
				if err != nil {
					return fmt.Errorf("failed to insert seat: %w", err)
				}
			}
		}
	}

	seed := `
		INSERT INTO show_seats (show_id, seat_id, status)
		SELECT $1, id, 'AVAILABLE' FROM seats WHERE screen_id = $2`
	if _, err := tx.ExecContext(ctx, seed, show.ID, show.ScreenID); err != nil {
		return fmt.Errorf("failed to seed show seats: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE shows SET total_seats = (SELECT COUNT(*) FROM show_seats WHERE show_id = $1)
		WHERE id = $1
		RETURNING total_seats`, show.ID).Scan(&show.TotalSeats)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// tierForRow maps front rows to STANDARD, the middle block to PREMIUM
// and the back rows to VIP, matching the usual hall pricing.
func tierForRow(row, totalRows int) (string, int64) {
	switch {
	case totalRows >= 3 && row > totalRows*2/3:
		return models.TierVIP, 500
	case totalRows >= 3 && row > totalRows/3:
		return models.TierPremium, 200
	default:
		return models.TierStandard, 0
	}
}

func (r *ShowRepository) GetByID(ctx context.Context, id int64) (*models.Show, error) {
	show := &models.Show{}
	query := `
		SELECT id, screen_id, title, starts_at, base_price, total_seats, booked_seats, created_at, updated_at
		FROM shows
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&show.ID,
		&show.ScreenID,
		&show.Title,
		&show.StartsAt,
		&show.BasePrice,
		&show.TotalSeats,
		&show.BookedSeats,
		&show.CreatedAt,
		&show.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrShowNotFound
	}

	return show, err
}

func (r *ShowRepository) List(ctx context.Context) ([]models.Show, error) {
	var shows []models.Show
	query := `
		SELECT id, screen_id, title, starts_at, base_price, total_seats, booked_seats, created_at, updated_at
		FROM shows
		ORDER BY starts_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var show models.Show
		err := rows.Scan(
			&show.ID,
			&show.ScreenID,
			&show.Title,
			&show.StartsAt,
			&show.BasePrice,
			&show.TotalSeats,
			&show.BookedSeats,
			&show.CreatedAt,
			&show.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		shows = append(shows, show)
	}

	return shows, rows.Err()
}

// SeatMap returns the per-seat state joined with seat geometry and the
// effective price (show base + tier delta), ordered by row and number.
func (r *ShowRepository) SeatMap(ctx context.Context, showID int64) ([]models.SeatMapItem, error) {
	query := `
		SELECT s.id, s.row_number, s.seat_number, s.tier, sh.base_price + s.price_delta, ss.status
		FROM show_seats ss
		JOIN seats s ON s.id = ss.seat_id
		JOIN shows sh ON sh.id = ss.show_id
		WHERE ss.show_id = $1
		ORDER BY s.row_number, s.seat_number`

	rows, err := r.db.QueryContext(ctx, query, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.SeatMapItem
	for rows.Next() {
		var item models.SeatMapItem
		err := rows.Scan(&item.SeatID, &item.Row, &item.Number, &item.Tier, &item.Price, &item.Status)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SeatPrices returns the effective price per requested seat. The
// orchestrator recomputes amounts from this, never from client totals.
func (r *ShowRepository) SeatPrices(ctx context.Context, showID int64, seatIDs []string) (map[string]int64, error) {
	query := `
		SELECT s.id, sh.base_price + s.price_delta
		FROM show_seats ss
		JOIN seats s ON s.id = ss.seat_id
		JOIN shows sh ON sh.id = ss.show_id
		WHERE ss.show_id = $1 AND ss.seat_id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, showID, pq.Array(seatIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make(map[string]int64, len(seatIDs))
	for rows.Next() {
		var seatID string
		var price int64
		if err := rows.Scan(&seatID, &price); err != nil {
			return nil, err
		}
		prices[seatID] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(prices) != len(seatIDs) {
		return nil, apperrors.ErrSeatNotFound
	}
	return prices, nil
}

// CountStates derives the availability breakdown from the authoritative
// per-seat states. Reporting reads this; it never goes through the
// orchestrator.
func (r *ShowRepository) CountStates(ctx context.Context, showID int64) (available, held, booked int, err error) {
	query := `SELECT status, COUNT(*) FROM show_seats WHERE show_id = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, showID)
	if err != nil {
		return 0, 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, 0, err
		}
		switch status {
		case models.SeatAvailable:
			available = count
		case models.SeatHeld:
			held = count
		case models.SeatBooked:
			booked = count
		}
	}
	return available, held, booked, rows.Err()
}
