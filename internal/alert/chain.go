package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pscheid92/examguard/internal/adapter/metrics"
)

// Cue kinds, used as metric labels.
const (
	KindTone  = "tone"
	KindAlarm = "alarm"
)

// Chain tries its outputs in order and uses the first that can play.
type Chain struct {
	kind    string
	outputs []Output
	metrics *metrics.AlertMetrics
}

func NewChain(kind string, m *metrics.AlertMetrics, outputs ...Output) *Chain {
	return &Chain{kind: kind, outputs: outputs, metrics: m}
}

func (c *Chain) Tier() string { return "chain" }

func (c *Chain) Beep(ctx context.Context) error {
	var errs []error
	for _, o := range c.outputs {
		err := o.Beep(ctx)
		if err == nil {
			c.metrics.Served(c.kind, o.Tier())
			return nil
		}
		slog.DebugContext(ctx, "Cue tier failed, falling back", "kind", c.kind, "tier", o.Tier(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", o.Tier(), err))
	}
	c.metrics.Unserved(c.kind)
	return fmt.Errorf("no %s output could play: %w", c.kind, errors.Join(errs...))
}

// Loop starts the first tier that can play. When that tier's loop gives up,
// the returned handle moves on to the next tier. Done closes once every
// remaining tier has failed or Stop was called.
func (c *Chain) Loop() (Handle, error) {
	current, tier, err := c.loopFrom(0)
	if err != nil {
		return nil, err
	}
	h := &chainHandle{stop: make(chan struct{}), done: make(chan struct{})}
	go c.supervise(h, current, tier)
	return h, nil
}

func (c *Chain) loopFrom(first int) (Handle, int, error) {
	var errs []error
	for i := first; i < len(c.outputs); i++ {
		o := c.outputs[i]
		h, err := o.Loop()
		if err == nil {
			c.metrics.Served(c.kind, o.Tier())
			return h, i, nil
		}
		slog.Debug("Cue tier failed, falling back", "kind", c.kind, "tier", o.Tier(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", o.Tier(), err))
	}
	c.metrics.Unserved(c.kind)
	if len(errs) == 0 {
		return nil, 0, fmt.Errorf("no %s output left: %w", c.kind, ErrUnavailable)
	}
	return nil, 0, fmt.Errorf("no %s output could play: %w", c.kind, errors.Join(errs...))
}

func (c *Chain) supervise(h *chainHandle, current Handle, tier int) {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			current.Stop()
			return
		case <-current.Done():
		}

		select {
		case <-h.stop:
			return
		default:
		}

		slog.Warn("Cue tier stopped playing, falling back", "kind", c.kind, "tier", c.outputs[tier].Tier())
		next, i, err := c.loopFrom(tier + 1)
		if err != nil {
			slog.Warn("Looping cue gave up", "kind", c.kind, "error", err)
			return
		}
		current, tier = next, i
	}
}

type chainHandle struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (h *chainHandle) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

func (h *chainHandle) Done() <-chan struct{} { return h.done }
