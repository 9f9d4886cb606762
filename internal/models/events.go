package models

import "time"

// NATS event subjects
const (
	EventSeatsHeld        = "seats.held"
	EventSeatsBooked      = "seats.booked"
	EventSeatsReleased    = "seats.released"
	EventBookingCancelled = "booking.cancelled"
)

// SeatsHeldEvent is emitted when a hold reserves a seat set
type SeatsHeldEvent struct {
	ShowID    int64     `json:"show_id"`
	SeatIDs   []string  `json:"seat_ids"`
	HoldToken string    `json:"hold_token"`
	Actor     string    `json:"actor"`
	ExpiresAt time.Time `json:"expires_at"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatsBookedEvent is emitted when a booking is confirmed and its seats
// become permanently booked
type SeatsBookedEvent struct {
	ShowID      int64     `json:"show_id"`
	SeatIDs     []string  `json:"seat_ids"`
	BookingID   int64     `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	Actor       string    `json:"actor"`
	TotalAmount int64     `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// SeatsReleasedEvent is emitted when held seats return to available,
// whether by explicit release, payment failure or the expiry sweep
type SeatsReleasedEvent struct {
	ShowID    int64     `json:"show_id"`
	SeatIDs   []string  `json:"seat_ids"`
	HoldToken string    `json:"hold_token"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent carries the refund amount for the payment
// collaborator to settle asynchronously
type BookingCancelledEvent struct {
	ShowID       int64     `json:"show_id"`
	SeatIDs      []string  `json:"seat_ids"`
	BookingID    int64     `json:"booking_id"`
	BookingCode  string    `json:"booking_code"`
	Actor        string    `json:"actor"`
	RefundAmount int64     `json:"refund_amount"`
	PaymentTxnID string    `json:"payment_txn_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// StreamEvent is the flattened availability update fanned out to seat-map
// observers. Delivery is best-effort: clients re-fetch the seat map as
// ground truth on reconnect.
type StreamEvent struct {
	EventType string    `json:"event_type"`
	ShowID    int64     `json:"show_id"`
	SeatIDs   []string  `json:"seat_ids"`
	BookingID *int64    `json:"booking_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
