package models

import (
	"time"
)

// Seat state values for a (show, seat) pair. At most one non-AVAILABLE
// state exists for a pair at any instant.
const (
	SeatAvailable = "AVAILABLE"
	SeatHeld      = "HELD"
	SeatBooked    = "BOOKED"
)

// Booking status values. PENDING -> CONFIRMED happens once,
// CONFIRMED -> CANCELLED at most once; no other transitions.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingExpired   = "EXPIRED"
)

// Seat tiers with their catalog names
const (
	TierStandard = "STANDARD"
	TierPremium  = "PREMIUM"
	TierVIP      = "VIP"
)

// Show represents a single screening. Scheduled time, screen and base
// price are immutable once created. BookedSeats is a fast-path counter
// mutated only inside the same transaction as a seat-state transition.
type Show struct {
	ID          int64     `json:"id" db:"id"`
	ScreenID    int64     `json:"screen_id" db:"screen_id"`
	Title       string    `json:"title" db:"title"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	BasePrice   int64     `json:"base_price" db:"base_price"`
	TotalSeats  int       `json:"total_seats" db:"total_seats"`
	BookedSeats int       `json:"booked_seats" db:"booked_seats"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Available derives the sellable seat count from the counter pair.
func (s *Show) Available() int {
	return s.TotalSeats - s.BookedSeats
}

// Seat belongs to exactly one screen and is shared across all shows on
// that screen. Immutable once created.
type Seat struct {
	ID         string `json:"id" db:"id"`
	ScreenID   int64  `json:"screen_id" db:"screen_id"`
	Row        int    `json:"row" db:"row_number"`
	Number     int    `json:"number" db:"seat_number"`
	Tier       string `json:"tier" db:"tier"`
	PriceDelta int64  `json:"price_delta" db:"price_delta"`
}

// SeatState is the per-(show, seat) record, the single source of truth
// the whole engine protects.
type SeatState struct {
	ShowID    int64     `json:"show_id" db:"show_id"`
	SeatID    string    `json:"seat_id" db:"seat_id"`
	Status    string    `json:"status" db:"status"`
	HoldToken *string   `json:"-" db:"hold_token"`
	BookingID *int64    `json:"booking_id,omitempty" db:"booking_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Hold is the short-lived reservation primitive. It is created and
// deleted in the same transaction as the HELD seat states it backs;
// the server-side expiry is authoritative.
type Hold struct {
	Token     string    `json:"token" db:"token"`
	ShowID    int64     `json:"show_id" db:"show_id"`
	Actor     string    `json:"actor" db:"actor"`
	SeatIDs   []string  `json:"seat_ids" db:"seat_ids"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the hold window has elapsed at the given time.
func (h *Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// Booking is the durable record created around a payment attempt.
// Amounts are in minor currency units.
type Booking struct {
	ID             int64     `json:"id" db:"id"`
	Code           string    `json:"code" db:"code"`
	ShowID         int64     `json:"show_id" db:"show_id"`
	Actor          string    `json:"actor" db:"actor"`
	Status         string    `json:"status" db:"status"`
	Subtotal       int64     `json:"subtotal" db:"subtotal"`
	Fee            int64     `json:"fee" db:"fee"`
	Discount       int64     `json:"discount" db:"discount"`
	TotalAmount    int64     `json:"total_amount" db:"total_amount"`
	RefundAmount   *int64    `json:"refund_amount,omitempty" db:"refund_amount"`
	PaymentTxnID   *string   `json:"payment_txn_id,omitempty" db:"payment_txn_id"`
	IdempotencyKey *string   `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Seats []BookingSeat `json:"seats,omitempty"` // not from DB, filled separately
}

// BookingSeat records the per-seat price at the time of booking.
type BookingSeat struct {
	ID        int64  `json:"id" db:"id"`
	BookingID int64  `json:"booking_id" db:"booking_id"`
	ShowID    int64  `json:"show_id" db:"show_id"`
	SeatID    string `json:"seat_id" db:"seat_id"`
	Price     int64  `json:"price" db:"price"`
}

// PromoCode is a percent discount applied during price computation.
type PromoCode struct {
	Code       string `json:"code" db:"code"`
	PercentOff int    `json:"percent_off" db:"percent_off"`
	Active     bool   `json:"active" db:"active"`
}
