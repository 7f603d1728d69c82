package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/examguard/internal/domain"
)

// CaptureNotifier beeps once per new evidence capture. The tone is suppressed
// while the sustained alarm plays, but the marker still advances.
type CaptureNotifier struct {
	feed      domain.CaptureFeed
	tone      domain.Tone
	alarm     domain.Alarm
	studentID int64
	examID    int64

	marker float64
}

func NewCaptureNotifier(feed domain.CaptureFeed, tone domain.Tone, alarm domain.Alarm, studentID, examID int64) *CaptureNotifier {
	return &CaptureNotifier{
		feed:      feed,
		tone:      tone,
		alarm:     alarm,
		studentID: studentID,
		examID:    examID,
	}
}

// Poll fetches the latest capture timestamp. Feed failures are logged and the tick is skipped.
func (n *CaptureNotifier) Poll(ctx context.Context) {
	at, err := n.feed.LastCapture(ctx, n.studentID, n.examID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, circuitbreaker.ErrOpen) {
			slog.DebugContext(ctx, "Capture poll skipped, breaker open")
			return
		}
		slog.WarnContext(ctx, "Capture poll failed", "error", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	n.Observe(ctx, at)
}

// Observe handles one capture timestamp. It reports whether a tone was played.
func (n *CaptureNotifier) Observe(ctx context.Context, at float64) bool {
	if at <= n.marker {
		return false
	}
	n.marker = at

	if n.alarm.Active() {
		slog.DebugContext(ctx, "Capture tone suppressed by sustained alarm", "at", at)
		return false
	}
	if err := n.tone.Beep(ctx); err != nil {
		slog.WarnContext(ctx, "Capture tone failed", "error", err)
		return false
	}
	slog.InfoContext(ctx, "Evidence captured", "at", at)
	return true
}

// Marker returns the last seen capture timestamp.
func (n *CaptureNotifier) Marker() float64 {
	return n.marker
}
