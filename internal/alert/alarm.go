package alert

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pscheid92/examguard/internal/adapter/metrics"
)

// Alarm is the single sustained-alarm slot.
type Alarm struct {
	out     Output
	metrics *metrics.AlertMetrics

	mu     sync.Mutex
	handle Handle
}

func NewAlarm(out Output, m *metrics.AlertMetrics) *Alarm {
	return &Alarm{out: out, metrics: m}
}

// Start begins looping the alarm. It is a no-op while the alarm is active.
// On failure the slot stays empty so the next Start tries again. The slot
// also empties when the loop gives up on its own.
func (a *Alarm) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handle != nil {
		return nil
	}

	h, err := a.out.Loop()
	if err != nil {
		return err
	}
	a.handle = h
	a.metrics.AlarmStarted()
	slog.InfoContext(ctx, "Sustained alarm started")
	go a.watch(h)
	return nil
}

func (a *Alarm) watch(h Handle) {
	<-h.Done()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle != h {
		return
	}
	a.handle = nil
	a.metrics.AlarmStopped()
	slog.Warn("Sustained alarm ended without being stopped")
}

// Stop silences the alarm. It is a no-op while the alarm is idle.
func (a *Alarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handle == nil {
		return
	}
	a.handle.Stop()
	a.handle = nil
	a.metrics.AlarmStopped()
	slog.Info("Sustained alarm stopped")
}

func (a *Alarm) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle != nil
}
