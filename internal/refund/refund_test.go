package refund

import (
	"testing"
	"time"

	"cinebook/internal/config"
	apperrors "cinebook/internal/errors"

	"github.com/stretchr/testify/assert"
)

func testPolicy() config.BookingPolicy {
	return config.BookingPolicy{
		CancelCutoff:     2 * time.Hour,
		FullRefundWindow: 24 * time.Hour,
		PartialRefundPct: 50,
	}
}

func TestCalculate_FullRefundOutsideWindow(t *testing.T) {
	calc := NewCalculator(testPolicy())
	now := time.Now()
	startsAt := now.Add(48 * time.Hour)

	refund, err := calc.Calculate(10000, startsAt, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), refund)
}

func TestCalculate_PartialRefundInsideWindow(t *testing.T) {
	calc := NewCalculator(testPolicy())
	now := time.Now()
	startsAt := now.Add(10 * time.Hour)

	refund, err := calc.Calculate(10000, startsAt, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(5000), refund)
}

func TestCalculate_TooLateToCancel(t *testing.T) {
	calc := NewCalculator(testPolicy())
	now := time.Now()

	cases := []time.Duration{
		90 * time.Minute,
		2 * time.Hour,
		-1 * time.Hour, // show already started
	}
	for _, untilShow := range cases {
		refund, err := calc.Calculate(10000, now.Add(untilShow), now)
		assert.ErrorIs(t, err, apperrors.ErrTooLateToCancel)
		assert.Equal(t, int64(0), refund)
	}
}

func TestCalculate_ExactFullRefundBoundary(t *testing.T) {
	calc := NewCalculator(testPolicy())
	now := time.Now()

	// Exactly at the full-refund boundary falls into the partial tier.
	refund, err := calc.Calculate(10000, now.Add(24*time.Hour), now)
	assert.NoError(t, err)
	assert.Equal(t, int64(5000), refund)

	refund, err = calc.Calculate(10000, now.Add(24*time.Hour+time.Second), now)
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), refund)
}

// Refund must never exceed the paid total and must not decrease as the
// cancellation moves further from showtime.
func TestCalculate_Monotonicity(t *testing.T) {
	calc := NewCalculator(testPolicy())
	now := time.Now()
	total := int64(12345)

	var prev int64
	for hours := 3; hours <= 72; hours++ {
		refund, err := calc.Calculate(total, now.Add(time.Duration(hours)*time.Hour), now)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, refund, prev, "refund decreased at %dh before show", hours)
		assert.LessOrEqual(t, refund, total)
		prev = refund
	}
}

func TestCalculate_ZeroTotal(t *testing.T) {
	calc := NewCalculator(testPolicy())
	now := time.Now()

	refund, err := calc.Calculate(0, now.Add(10*time.Hour), now)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), refund)
}

func TestCancellationAllowed(t *testing.T) {
	calc := NewCalculator(testPolicy())
	now := time.Now()

	assert.True(t, calc.CancellationAllowed(now.Add(3*time.Hour), now))
	assert.False(t, calc.CancellationAllowed(now.Add(time.Hour), now))
}
