package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createShowsTable,
		createSeatsTable,
		createShowSeatsTable,
		createHoldsTable,
		createBookingsTable,
		createBookingSeatsTable,
		createPromoCodesTable,
		createHoldsExpiryIndex,
		createShowSeatsStatusIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createShowsTable = `
CREATE TABLE IF NOT EXISTS shows (
    id SERIAL PRIMARY KEY,
    screen_id INTEGER NOT NULL,
    title VARCHAR(500) NOT NULL,
    starts_at TIMESTAMP NOT NULL,
    base_price BIGINT NOT NULL,
    total_seats INTEGER NOT NULL DEFAULT 0,
    booked_seats INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (booked_seats >= 0),
    CHECK (booked_seats <= total_seats)
);`

const createSeatsTable = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS seats (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    screen_id INTEGER NOT NULL,
    row_number INTEGER NOT NULL,
    seat_number INTEGER NOT NULL,
    tier VARCHAR(20) NOT NULL DEFAULT 'STANDARD',
    price_delta BIGINT NOT NULL DEFAULT 0,

    UNIQUE(screen_id, row_number, seat_number),
    CHECK (tier IN ('STANDARD', 'PREMIUM', 'VIP'))
);`

const createShowSeatsTable = `
CREATE TABLE IF NOT EXISTS show_seats (
    show_id INTEGER NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
    seat_id UUID NOT NULL REFERENCES seats(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'AVAILABLE',
    hold_token UUID,
    booking_id INTEGER,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    PRIMARY KEY (show_id, seat_id),
    CHECK (status IN ('AVAILABLE', 'HELD', 'BOOKED'))
);`

const createHoldsTable = `
CREATE TABLE IF NOT EXISTS holds (
    token UUID PRIMARY KEY,
    show_id INTEGER NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
    actor VARCHAR(255) NOT NULL,
    seat_ids TEXT[] NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    code VARCHAR(40) UNIQUE NOT NULL,
    show_id INTEGER NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
    actor VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    subtotal BIGINT NOT NULL DEFAULT 0,
    fee BIGINT NOT NULL DEFAULT 0,
    discount BIGINT NOT NULL DEFAULT 0,
    total_amount BIGINT NOT NULL DEFAULT 0,
    refund_amount BIGINT,
    payment_txn_id VARCHAR(255),
    idempotency_key VARCHAR(255) UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'EXPIRED'))
);`

const createBookingSeatsTable = `
CREATE TABLE IF NOT EXISTS booking_seats (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    show_id INTEGER NOT NULL,
    seat_id UUID NOT NULL,
    price BIGINT NOT NULL,

    UNIQUE(booking_id, seat_id)
);`

const createPromoCodesTable = `
CREATE TABLE IF NOT EXISTS promo_codes (
    code VARCHAR(40) PRIMARY KEY,
    percent_off INTEGER NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,

    CHECK (percent_off > 0 AND percent_off <= 100)
);`

const createHoldsExpiryIndex = `
CREATE INDEX IF NOT EXISTS holds_expires_at_idx ON holds (expires_at);`

const createShowSeatsStatusIndex = `
CREATE INDEX IF NOT EXISTS show_seats_status_idx ON show_seats (show_id, status);`
