package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/pscheid92/examguard/internal/adapter/metrics"
	"github.com/pscheid92/examguard/internal/domain"
)

// Submitter runs the submission sequence for one session. It executes at most
// once; later calls return domain.ErrSubmissionInProgress.
type Submitter struct {
	backend   domain.ExamBackend
	uplink    domain.Uplink
	alarm     domain.Alarm
	presenter domain.Presenter
	metrics   *metrics.SessionMetrics

	inFlight atomic.Bool
}

func NewSubmitter(backend domain.ExamBackend, uplink domain.Uplink, alarm domain.Alarm, presenter domain.Presenter, m *metrics.SessionMetrics) *Submitter {
	return &Submitter{
		backend:   backend,
		uplink:    uplink,
		alarm:     alarm,
		presenter: presenter,
		metrics:   m,
	}
}

// Submit runs every step in order. A failing step never aborts the sequence.
// Only a failed submission record marks the result as Failed.
func (s *Submitter) Submit(ctx context.Context, session domain.ExamSession, trigger domain.Trigger) (domain.SubmissionResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.SubmissionResult{}, domain.ErrSubmissionInProgress
	}

	slog.InfoContext(ctx, "Submitting exam", "trigger", string(trigger))
	result := domain.SubmissionResult{Trigger: trigger}

	status := s.step(ctx, domain.StepStatusSubmit, func(ctx context.Context) error {
		return s.backend.UpdateStatusSubmit(ctx, session.StudentID)
	})
	if status.Err != nil {
		s.presenter.ShowNotice(ctx, "Exam status could not be updated")
	}
	result.Steps = append(result.Steps, status)

	result.Steps = append(result.Steps, s.step(ctx, domain.StepTeardown, func(context.Context) error {
		s.uplink.Stop()
		s.alarm.Stop()
		return nil
	}))

	classify := s.step(ctx, domain.StepClassify, func(ctx context.Context) error {
		return s.backend.ClassifyBehaviorLogs(ctx, session.StudentID, session.ExamID)
	})
	if classify.Err != nil {
		s.presenter.ShowNotice(ctx, "Behavior review could not be started")
	}
	result.Steps = append(result.Steps, classify)

	record := s.step(ctx, domain.StepSubmitRecord, func(ctx context.Context) error {
		return s.backend.SubmitExam(ctx, session.StudentID, session.ExamID)
	})
	if record.Err != nil {
		result.Failed = true
		s.presenter.ShowNotice(ctx, "Exam submission failed")
	}
	result.Steps = append(result.Steps, record)

	var logs []domain.BehaviorLogEntry
	fetch := s.step(ctx, domain.StepFetchLogs, func(ctx context.Context) error {
		all, err := s.backend.BehaviorLogs(ctx, session.StudentID)
		if err != nil {
			return err
		}
		logs = examLogs(all, session.ExamID)
		return nil
	})
	if fetch.Err != nil {
		s.presenter.ShowNotice(ctx, "Behavior log could not be loaded")
	}
	result.Steps = append(result.Steps, fetch)
	result.Logs = logs

	slog.InfoContext(ctx, "Exam submission finished",
		"trigger", string(trigger),
		"failed", result.Failed,
		"step_failures", len(result.Failures()),
		"logs", len(result.Logs),
	)
	return result, nil
}

// step runs fn in isolation. Errors and panics become a StepError.
func (s *Submitter) step(ctx context.Context, step string, fn func(ctx context.Context) error) (out domain.StepOutcome) {
	out.Step = step
	defer func() {
		if r := recover(); r != nil {
			out.Err = &domain.StepError{Step: step, Err: fmt.Errorf("panic: %v", r)}
		}
		if out.Err != nil {
			slog.WarnContext(ctx, "Submission step failed", "step", step, "error", out.Err)
		}
		s.metrics.Step(step, out.Err)
	}()

	if err := fn(ctx); err != nil {
		out.Err = &domain.StepError{Step: step, Err: err}
	}
	return out
}

// examLogs keeps the entries of one exam, most recent first.
func examLogs(all []domain.BehaviorLogEntry, examID int64) []domain.BehaviorLogEntry {
	out := make([]domain.BehaviorLogEntry, 0, len(all))
	for _, e := range all {
		if e.ExamID == examID {
			out = append(out, e)
		}
	}
	slices.Reverse(out)
	return out
}
