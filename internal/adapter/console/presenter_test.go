package console

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/pscheid92/examguard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*LogPresenter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewLogPresenter(logger), &buf
}

func TestShowRemaining_Throttled(t *testing.T) {
	p, buf := newTestPresenter()
	ctx := context.Background()

	for s := 125; s >= 0; s-- {
		p.ShowRemaining(ctx, s)
	}

	lines := strings.Count(buf.String(), "Time remaining")
	// 02:05, 01:59, 00:59, then 00:10 down to 00:00.
	assert.Equal(t, 3+11, lines)
	assert.Contains(t, buf.String(), "remaining=02:05")
	assert.Contains(t, buf.String(), "remaining=00:00")
}

func TestShowSummary(t *testing.T) {
	p, buf := newTestPresenter()
	label := "suspicious"

	p.ShowSummary(context.Background(), domain.SubmissionResult{
		Trigger: domain.TriggerTimer,
		Steps: []domain.StepOutcome{
			{Step: domain.StepClassify, Err: &domain.StepError{Step: domain.StepClassify, Err: errors.New("down")}},
		},
		Logs: []domain.BehaviorLogEntry{
			{ImagePath: "b.jpg", WarningType: "no_face", Classification: &label, Timestamp: "09:10"},
			{ImagePath: "a.jpg", WarningType: "head_turn", Timestamp: "09:05"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Exam submitted")
	assert.Contains(t, out, "trigger=timer")
	assert.Contains(t, out, "step_classify")
	assert.Contains(t, out, "classification=suspicious")
	assert.Contains(t, out, "classification=pending")
}

func TestShowSummary_Failed(t *testing.T) {
	p, buf := newTestPresenter()

	p.ShowSummary(context.Background(), domain.SubmissionResult{Trigger: domain.TriggerManual, Failed: true})

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "Exam submission incomplete")
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "15:00", formatClock(900))
	assert.Equal(t, "00:09", formatClock(9))
	assert.Equal(t, "120:00", formatClock(7200))
	assert.Equal(t, "00:00", formatClock(-3))
}
