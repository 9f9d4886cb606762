package models

import "time"

// CreateShowRequest creates a show and its per-show seat states from the
// screen's seat grid.
type CreateShowRequest struct {
	ScreenID  int64     `json:"screen_id" binding:"required"`
	Title     string    `json:"title" binding:"required"`
	StartsAt  time.Time `json:"starts_at" binding:"required"`
	BasePrice int64     `json:"base_price" binding:"required"`
	Rows      int       `json:"rows"`
	RowSeats  int       `json:"row_seats"`
}

type CreateShowResponse struct {
	ID         int64 `json:"id"`
	TotalSeats int   `json:"total_seats"`
}

type ListShowsResponseItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	Available int       `json:"available"`
}

type ListShowsResponse []ListShowsResponseItem

// SeatMapItem is one entry of the seat map, the client's ground truth
// after any missed or duplicated availability event.
type SeatMapItem struct {
	SeatID string `json:"seat_id"`
	Row    int    `json:"row"`
	Number int    `json:"number"`
	Tier   string `json:"tier"`
	Price  int64  `json:"price"`
	Status string `json:"status"`
}

type SeatMapResponse struct {
	ShowID int64         `json:"show_id"`
	Seats  []SeatMapItem `json:"seats"`
}

type CreateHoldRequest struct {
	ShowID  int64    `json:"show_id" binding:"required"`
	SeatIDs []string `json:"seat_ids" binding:"required"`
}

type CreateHoldResponse struct {
	Token     string    `json:"token"`
	ShowID    int64     `json:"show_id"`
	SeatIDs   []string  `json:"seat_ids"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ExtendHoldResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SubmitBookingRequest struct {
	HoldToken      string `json:"hold_token" binding:"required"`
	PaymentMethod  string `json:"payment_method" binding:"required"`
	PromoCode      string `json:"promo_code"`
	IdempotencyKey string `json:"idempotency_key"`
}

type SubmitBookingResponse struct {
	BookingID   int64  `json:"booking_id"`
	Code        string `json:"code"`
	Status      string `json:"status"`
	Subtotal    int64  `json:"subtotal"`
	Fee         int64  `json:"fee"`
	Discount    int64  `json:"discount"`
	TotalAmount int64  `json:"total_amount"`
}

type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

type CancelBookingResponse struct {
	BookingID    int64  `json:"booking_id"`
	Status       string `json:"status"`
	RefundAmount int64  `json:"refund_amount"`
}

type ListBookingsResponseItem struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	ShowID      int64     `json:"show_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListBookingsResponse []ListBookingsResponseItem

// AvailabilityResponse is the reporting read model: counts derived from
// the authoritative per-seat states, alongside the fast-path counter.
type AvailabilityResponse struct {
	ShowID     int64 `json:"show_id"`
	TotalSeats int   `json:"total_seats"`
	Available  int   `json:"available"`
	Held       int   `json:"held"`
	Booked     int   `json:"booked"`
	Counter    int   `json:"counter_booked"`
}
