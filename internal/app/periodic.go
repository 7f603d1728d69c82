package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/examguard/internal/platform/correlation"
)

// PeriodicTask calls tick every interval until its context is cancelled.
// The first tick happens one interval after Run starts. Each tick gets its own
// correlation ID.
type PeriodicTask struct {
	clock    clockwork.Clock
	interval time.Duration
	tick     func(ctx context.Context)
}

func NewPeriodicTask(clock clockwork.Clock, interval time.Duration, tick func(ctx context.Context)) *PeriodicTask {
	return &PeriodicTask{clock: clock, interval: interval, tick: tick}
}

// Run blocks until ctx is cancelled.
func (t *PeriodicTask) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			t.tick(correlation.WithID(ctx, correlation.NewID()))
		}
	}
}
