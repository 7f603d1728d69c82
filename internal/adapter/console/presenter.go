// Package console presents session events as structured log lines for the
// headless agent.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pscheid92/examguard/internal/domain"
)

// finalCountdown is the number of trailing seconds reported individually.
const finalCountdown = 10

// LogPresenter writes session events to a slog.Logger. The countdown is
// reported once per minute and every second during the final countdown.
type LogPresenter struct {
	logger *slog.Logger

	mu         sync.Mutex
	lastMinute int
}

func NewLogPresenter(logger *slog.Logger) *LogPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPresenter{logger: logger.With("component", "presenter"), lastMinute: -1}
}

func (p *LogPresenter) ShowWarning(ctx context.Context, label string) {
	p.logger.WarnContext(ctx, "Proctoring warning", "warning", label)
}

func (p *LogPresenter) ShowNotice(ctx context.Context, message string) {
	p.logger.InfoContext(ctx, "Notice", "message", message)
}

func (p *LogPresenter) ShowRemaining(ctx context.Context, seconds int) {
	p.mu.Lock()
	minute := seconds / 60
	report := seconds <= finalCountdown || minute != p.lastMinute
	p.lastMinute = minute
	p.mu.Unlock()

	if report {
		p.logger.InfoContext(ctx, "Time remaining", "remaining", formatClock(seconds))
	}
}

func (p *LogPresenter) ShowSummary(ctx context.Context, result domain.SubmissionResult) {
	attrs := []any{
		"trigger", string(result.Trigger),
		"failed", result.Failed,
		"behavior_logs", len(result.Logs),
	}
	for _, f := range result.Failures() {
		attrs = append(attrs, slog.String("step_"+f.Step, f.Err.Error()))
	}
	if result.Failed {
		p.logger.ErrorContext(ctx, "Exam submission incomplete", attrs...)
	} else {
		p.logger.InfoContext(ctx, "Exam submitted", attrs...)
	}

	for _, e := range result.Logs {
		classification := "pending"
		if e.Classification != nil {
			classification = *e.Classification
		}
		p.logger.InfoContext(ctx, "Behavior record",
			"timestamp", e.Timestamp,
			"warning", e.WarningType,
			"classification", classification,
			"image", e.ImagePath,
		)
	}
}

// formatClock renders seconds as MM:SS.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
