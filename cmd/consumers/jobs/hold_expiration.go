package jobs

import (
	"context"
	"time"

	"cinebook/internal/logger"
	"cinebook/internal/service"
)

// HoldExpirationJob drives the hold expiry sweep. Liveness lives here:
// an abandoned hold is released within one sweep interval of expiring.
type HoldExpirationJob struct {
	holds    *service.HoldService
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewHoldExpirationJob(holds *service.HoldService, interval time.Duration) *HoldExpirationJob {
	return &HoldExpirationJob{
		holds:    holds,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start runs an immediate sweep and then one per interval. Sweeps run
// sequentially; a slow pass delays the next tick's work rather than
// stacking up concurrent sweeps over the same holds.
func (j *HoldExpirationJob) Start(ctx context.Context) {
	logger.Get().Info("starting hold expiration job", "interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	go func() {
		j.sweep(ctx)
		for {
			select {
			case <-j.ticker.C:
				j.sweep(ctx)
			case <-j.done:
				logger.Get().Info("hold expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *HoldExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *HoldExpirationJob) sweep(ctx context.Context) {
	// Keep sweeping until a pass comes back empty so a backlog larger
	// than one batch still clears within the tick.
	for {
		swept, err := j.holds.SweepExpired(ctx)
		if err != nil {
			logger.Get().Error("hold expiry sweep failed", "error", err)
			return
		}
		if swept == 0 {
			return
		}
	}
}
