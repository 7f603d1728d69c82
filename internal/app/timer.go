package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer counts the exam down once per second. onExpire runs exactly once, when
// the count reaches zero, and never after the timer's context is cancelled.
type Timer struct {
	clock     clockwork.Clock
	remaining atomic.Int64
	onTick    func(ctx context.Context, remaining int)
	onExpire  func(ctx context.Context)
	once      sync.Once
}

func NewTimer(clock clockwork.Clock, seconds int, onTick func(ctx context.Context, remaining int), onExpire func(ctx context.Context)) *Timer {
	t := &Timer{clock: clock, onTick: onTick, onExpire: onExpire}
	t.remaining.Store(int64(seconds))
	return t
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	return int(t.remaining.Load())
}

// Run blocks until the countdown expires or ctx is cancelled.
func (t *Timer) Run(ctx context.Context) {
	if t.Remaining() <= 0 {
		t.expire(ctx)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	NewPeriodicTask(t.clock, time.Second, func(tickCtx context.Context) {
		left := int(t.remaining.Add(-1))
		if left < 0 {
			left = 0
		}
		if t.onTick != nil {
			t.onTick(tickCtx, left)
		}
		if left == 0 {
			t.expire(tickCtx)
			cancel()
		}
	}).Run(runCtx)
}

func (t *Timer) expire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	t.once.Do(func() {
		slog.InfoContext(ctx, "Exam time is up")
		if t.onExpire != nil {
			t.onExpire(ctx)
		}
	})
}
