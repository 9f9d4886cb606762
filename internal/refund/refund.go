package refund

import (
	"time"

	"cinebook/internal/config"
	apperrors "cinebook/internal/errors"
)

// Calculator computes refunds from the booking policy. It is pure: all
// time arithmetic takes the reference instant as an argument, so the
// same inputs always produce the same answer.
type Calculator struct {
	policy config.BookingPolicy
}

func NewCalculator(policy config.BookingPolicy) *Calculator {
	return &Calculator{policy: policy}
}

// Calculate returns the refund due for cancelling at the given instant.
// Inside the cutoff window cancellation is rejected outright. Further
// out, the refund is the full amount beyond the full-refund window and
// the partial percentage between the two boundaries. The result never
// exceeds total and never goes negative.
func (c *Calculator) Calculate(total int64, startsAt, now time.Time) (int64, error) {
	untilShow := startsAt.Sub(now)

	if untilShow <= c.policy.CancelCutoff {
		return 0, apperrors.ErrTooLateToCancel
	}

	if untilShow > c.policy.FullRefundWindow {
		return total, nil
	}

	refund := total * int64(c.policy.PartialRefundPct) / 100
	if refund < 0 {
		refund = 0
	}
	if refund > total {
		refund = total
	}
	return refund, nil
}

// CancellationAllowed reports whether a cancel at now would pass the
// cutoff check, without computing the amount.
func (c *Calculator) CancellationAllowed(startsAt, now time.Time) bool {
	return startsAt.Sub(now) > c.policy.CancelCutoff
}
