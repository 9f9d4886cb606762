package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the booking engine. Seat conflicts and policy
// rejections are expected outcomes and are returned as values, never
// panics; handlers map them to 4xx responses.
var (
	ErrShowNotFound    = errors.New("show not found")
	ErrSeatNotFound    = errors.New("seat not found for show")
	ErrHoldNotFound    = errors.New("hold not found")
	ErrHoldExpired     = errors.New("hold has expired")
	ErrBookingNotFound = errors.New("booking not found")
	ErrTooLateToCancel = errors.New("too late to cancel booking")
	ErrPromoInvalid    = errors.New("promo code is invalid or inactive")
	ErrForbidden       = errors.New("operation is forbidden for actor")

	// ErrInvariantViolation means the one-state-per-(show,seat) rule was
	// about to be broken. Unreachable in a correct deployment; callers
	// must alert, not retry.
	ErrInvariantViolation = errors.New("seat state invariant violation")
)

// SeatConflictError reports which requested seats were not available.
// It is a routine outcome under contention, not a fault.
type SeatConflictError struct {
	SeatIDs []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats not available: %v", e.SeatIDs)
}

// AsSeatConflict unwraps err into a SeatConflictError if it is one.
func AsSeatConflict(err error) (*SeatConflictError, bool) {
	var conflict *SeatConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// PaymentFailedError reports a declined or timed-out charge. Outcome
// carries the gateway verdict (DECLINED or TIMEOUT). By the time this
// is returned the held seats are released and the booking row is
// expired; a new attempt starts from a fresh hold.
type PaymentFailedError struct {
	Reason  string
	Outcome string
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment failed (%s): %s", e.Outcome, e.Reason)
}

// AsPaymentFailed unwraps err into a PaymentFailedError if it is one.
func AsPaymentFailed(err error) (*PaymentFailedError, bool) {
	var pf *PaymentFailedError
	if errors.As(err, &pf) {
		return pf, true
	}
	return nil, false
}
