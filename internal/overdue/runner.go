package overdue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"invoicing/internal/clock"
	"invoicing/internal/logger"
)

// Runner repeats a sweep on a fixed interval until its context ends.
// Each run sweeps for the sweeper clock's current date.
type Runner struct {
	sweeper  *Sweeper
	interval time.Duration
	log      zerolog.Logger
}

func NewRunner(sweeper *Sweeper, interval time.Duration) *Runner {
	return &Runner{
		sweeper:  sweeper,
		interval: interval,
		log:      logger.WithComponent("overdue-runner"),
	}
}

// Start sweeps once immediately and then on every tick. Blocking call.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("Overdue runner started")
	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Context cancelled, stopping overdue runner")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if _, err := r.sweeper.Sweep(ctx, clock.Today(r.sweeper.clock)); err != nil {
		r.log.Error().Err(err).Msg("Overdue sweep failed")
	}
}
