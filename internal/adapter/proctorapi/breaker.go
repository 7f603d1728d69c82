package proctorapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/examguard/internal/adapter/metrics"
)

const (
	feedWarning = "warning"
	feedCapture = "capture"

	breakerFailureThreshold = 5
	breakerOpenDelay        = 10 * time.Second
)

// newFeedBreaker opens after consecutive poll failures so a dead backend
// is not hit on every tick, and half-opens after breakerOpenDelay.
func newFeedBreaker(feed string, m *metrics.FeedMetrics) circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.Builder[any]().
		WithFailureThreshold(breakerFailureThreshold).
		WithDelay(breakerOpenDelay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", feed,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			m.BreakerChanged(feed, e.NewState.String(), stateToFloat(e.NewState))
		}).
		Build()
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// poll runs one feed request behind the feed's breaker and records the outcome.
func (c *Client) poll(ctx context.Context, feed string, cb circuitbreaker.CircuitBreaker[any], fn func() error) error {
	if !cb.TryAcquirePermit() {
		c.metrics.Poll(feed, metrics.OutcomeOpen)
		return fmt.Errorf("%s feed: %w", feed, circuitbreaker.ErrOpen)
	}

	err := fn()
	switch {
	case err == nil:
		cb.RecordSuccess()
		c.metrics.Poll(feed, metrics.OutcomeOK)
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// Cancelled polls say nothing about the backend and leave the failure
		// count alone. A half-open trial still has to give back its permit.
		if cb.IsHalfOpen() {
			cb.RecordError(err)
		}
		return err
	default:
		cb.RecordError(err)
		c.metrics.Poll(feed, metrics.OutcomeError)
		return err
	}
}

// BreakerStates reports the breaker state per feed.
func (c *Client) BreakerStates() map[string]string {
	return map[string]string{
		feedWarning: c.warningBreaker.State().String(),
		feedCapture: c.captureBreaker.State().String(),
	}
}
