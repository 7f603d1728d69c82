package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/examguard/internal/domain"
)

// WarningMonitor turns the warning feed into audible cues.
//
//	neutral           → stop the alarm if it was sustained, no tone
//	sustained, new    → one tone, surface the warning, start the alarm
//	sustained, repeat → keep the alarm (Start is idempotent), no tone
//	transient, new    → one tone, surface the warning; a sustained alarm stops
//	transient, repeat → nothing
//
// "new" means the raw label differs from the previous sample's. State is owned by
// the polling goroutine.
type WarningMonitor struct {
	feed      domain.WarningFeed
	labels    domain.Labels
	tone      domain.Tone
	alarm     domain.Alarm
	presenter domain.Presenter
	clock     clockwork.Clock
	studentID int64
	examID    int64

	prev domain.WarningSample
}

func NewWarningMonitor(feed domain.WarningFeed, labels domain.Labels, tone domain.Tone, alarm domain.Alarm, presenter domain.Presenter, clock clockwork.Clock, studentID, examID int64) *WarningMonitor {
	return &WarningMonitor{
		feed:      feed,
		labels:    labels,
		tone:      tone,
		alarm:     alarm,
		presenter: presenter,
		clock:     clock,
		studentID: studentID,
		examID:    examID,
		prev:      domain.WarningSample{Category: domain.CategoryLookingForward},
	}
}

// Poll fetches one sample. Feed failures are logged and the tick is skipped.
func (w *WarningMonitor) Poll(ctx context.Context) {
	label, err := w.feed.LastWarning(ctx, w.studentID, w.examID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, circuitbreaker.ErrOpen) {
			slog.DebugContext(ctx, "Warning poll skipped, breaker open")
			return
		}
		slog.WarnContext(ctx, "Warning poll failed", "error", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	w.Observe(ctx, label)
}

// Observe applies one raw label to the state machine.
func (w *WarningMonitor) Observe(ctx context.Context, label string) {
	sample := domain.WarningSample{
		Category:   w.labels.Classify(label),
		Label:      label,
		ObservedAt: w.clock.Now(),
	}
	changed := sample.Label != w.prev.Label

	switch sample.Category {
	case domain.CategoryLookingForward:
		if w.prev.Category == domain.CategorySustained {
			w.alarm.Stop()
		}
	case domain.CategorySustained:
		if changed {
			w.announce(ctx, sample)
		}
		if err := w.alarm.Start(ctx); err != nil {
			slog.WarnContext(ctx, "Sustained alarm could not start", "error", err)
		}
	case domain.CategoryTransient:
		if w.prev.Category == domain.CategorySustained {
			w.alarm.Stop()
		}
		if changed {
			w.announce(ctx, sample)
		}
	}

	if changed {
		slog.DebugContext(ctx, "Warning state changed", "from", w.prev.Category.String(), "to", sample.Category.String(), "label", label)
	}
	w.prev = sample
}

func (w *WarningMonitor) announce(ctx context.Context, sample domain.WarningSample) {
	w.presenter.ShowWarning(ctx, sample.Label)
	if err := w.tone.Beep(ctx); err != nil {
		slog.WarnContext(ctx, "Warning tone failed", "label", sample.Label, "error", err)
	}
}

// State returns the category of the last observed sample.
func (w *WarningMonitor) State() domain.Category {
	return w.prev.Category
}
