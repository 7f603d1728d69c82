package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/examguard/internal/adapter/metrics"
	"github.com/pscheid92/examguard/internal/domain"
	"github.com/pscheid92/examguard/internal/platform/correlation"
	"github.com/pscheid92/examguard/internal/schedule"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators of a Controller. Registry and Clock default to a
// private registry and the real clock.
type Deps struct {
	Uplink    domain.Uplink
	Backend   domain.ExamBackend
	Warnings  domain.WarningFeed
	Captures  domain.CaptureFeed
	Tone      domain.Tone
	Alarm     domain.Alarm
	Presenter domain.Presenter
	Registry  *Registry
	Metrics   *metrics.SessionMetrics
	Clock     clockwork.Clock
}

// Settings tune a Controller.
type Settings struct {
	Location           *time.Location
	Labels             domain.Labels
	WarningInterval    time.Duration
	CaptureInterval    time.Duration
	NegotiationTimeout time.Duration
}

// Snapshot is a read-only view of the controller state.
type Snapshot struct {
	Status           string `json:"status"`
	StudentID        int64  `json:"student_id,omitempty"`
	ExamID           int64  `json:"exam_id,omitempty"`
	AttemptID        string `json:"attempt_id,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds"`
	AlarmActive      bool   `json:"alarm_active"`
}

// Controller owns one exam session at a time and drives it from Idle through
// Active and Submitting to Submitted.
type Controller struct {
	deps     Deps
	settings Settings

	mu        sync.Mutex
	status    domain.Status
	starting  bool
	session   domain.ExamSession
	timer     *Timer
	submitter *Submitter
	cancel    context.CancelFunc
	tasks     *errgroup.Group
	done      chan struct{}
	result    *domain.SubmissionResult
}

func NewController(deps Deps, settings Settings) *Controller {
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return &Controller{deps: deps, settings: settings}
}

// Start opens the exam window for the session. It fails without side effects
// when the window is not open, and releases everything it acquired when the
// uplink cannot be established.
func (c *Controller) Start(ctx context.Context, exam domain.ExamSession) error {
	c.mu.Lock()
	if c.status != domain.StatusIdle || c.starting {
		c.mu.Unlock()
		return domain.ErrSessionActive
	}
	c.starting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	ctx = correlation.WithSession(ctx, correlation.Session{
		StudentID: exam.StudentID,
		ExamID:    exam.ExamID,
		AttemptID: exam.AttemptID.String(),
	})

	window, err := schedule.Resolve(exam.Schedule, c.settings.Location)
	if err != nil {
		return err
	}
	if _, err := window.Remaining(c.deps.Clock.Now()); err != nil {
		slog.InfoContext(ctx, "Exam not available", "error", err)
		return err
	}

	if err := c.deps.Registry.Acquire(exam.StudentID, exam.AttemptID); err != nil {
		return err
	}

	if err := c.connect(ctx, exam); err != nil {
		c.deps.Registry.Release(exam.StudentID, exam.AttemptID)
		c.deps.Presenter.ShowNotice(ctx, "Camera connection failed")
		return err
	}

	if err := c.deps.Backend.UpdateStatusStart(ctx, exam.StudentID); err != nil {
		slog.WarnContext(ctx, "Exam status start not recorded", "error", err)
		c.deps.Presenter.ShowNotice(ctx, "Exam status could not be updated")
	}

	// Negotiation may have taken a while; the window end does not move.
	remaining, err := window.Remaining(c.deps.Clock.Now())
	if err != nil {
		remaining = 1
	}

	c.activate(ctx, exam, remaining)
	slog.InfoContext(ctx, "Exam started", "remaining_seconds", remaining)
	return nil
}

func (c *Controller) connect(ctx context.Context, exam domain.ExamSession) error {
	negCtx := ctx
	if c.settings.NegotiationTimeout > 0 {
		var cancel context.CancelFunc
		negCtx, cancel = context.WithTimeout(ctx, c.settings.NegotiationTimeout)
		defer cancel()
	}
	if err := c.deps.Uplink.Start(negCtx, exam.StudentID, exam.ExamID); err != nil {
		return fmt.Errorf("start uplink: %w", err)
	}
	return nil
}

func (c *Controller) activate(ctx context.Context, exam domain.ExamSession, remaining int) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	timer := NewTimer(c.deps.Clock, remaining, c.onTick, func(ctx context.Context) {
		// Submit waits for every task, this one included.
		go func() {
			if _, err := c.Submit(context.WithoutCancel(ctx), domain.TriggerTimer); err != nil {
				slog.WarnContext(ctx, "Automatic submission skipped", "error", err)
			}
		}()
	})
	warnings := NewWarningMonitor(c.deps.Warnings, c.settings.Labels, c.deps.Tone, c.deps.Alarm, c.deps.Presenter, c.deps.Clock, exam.StudentID, exam.ExamID)
	captures := NewCaptureNotifier(c.deps.Captures, c.deps.Tone, c.deps.Alarm, exam.StudentID, exam.ExamID)

	c.mu.Lock()
	c.status = domain.StatusActive
	c.session = exam
	c.timer = timer
	c.submitter = NewSubmitter(c.deps.Backend, c.deps.Uplink, c.deps.Alarm, c.deps.Presenter, c.deps.Metrics)
	c.cancel = cancel
	c.tasks = &errgroup.Group{}
	c.done = make(chan struct{})
	c.result = nil
	tasks := c.tasks
	c.mu.Unlock()

	c.deps.Metrics.Remaining(remaining)
	c.deps.Presenter.ShowRemaining(runCtx, remaining)

	tasks.Go(func() error {
		timer.Run(runCtx)
		return nil
	})
	tasks.Go(func() error {
		NewPeriodicTask(c.deps.Clock, c.settings.WarningInterval, warnings.Poll).Run(runCtx)
		return nil
	})
	tasks.Go(func() error {
		NewPeriodicTask(c.deps.Clock, c.settings.CaptureInterval, captures.Poll).Run(runCtx)
		return nil
	})
}

func (c *Controller) onTick(ctx context.Context, remaining int) {
	c.deps.Metrics.Remaining(remaining)
	c.deps.Presenter.ShowRemaining(ctx, remaining)
}

// Submit ends the active session. Background tasks are stopped and awaited
// before the first step runs.
func (c *Controller) Submit(ctx context.Context, trigger domain.Trigger) (domain.SubmissionResult, error) {
	c.mu.Lock()
	switch c.status {
	case domain.StatusActive:
	case domain.StatusSubmitting:
		c.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrSubmissionInProgress
	default:
		c.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrNotActive
	}
	c.status = domain.StatusSubmitting
	session, submitter, cancel, tasks, done := c.session, c.submitter, c.cancel, c.tasks, c.done
	c.mu.Unlock()

	cancel()
	_ = tasks.Wait()

	ctx = correlation.WithSession(correlation.WithID(ctx, correlation.NewID()), correlation.Session{
		StudentID: session.StudentID,
		ExamID:    session.ExamID,
		AttemptID: session.AttemptID.String(),
	})

	result, err := submitter.Submit(ctx, session, trigger)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	c.mu.Lock()
	c.status = domain.StatusSubmitted
	c.result = &result
	close(done)
	c.mu.Unlock()

	c.deps.Registry.Release(session.StudentID, session.AttemptID)
	c.deps.Metrics.Submitted(string(trigger))
	c.deps.Metrics.Remaining(0)
	c.deps.Presenter.ShowSummary(ctx, result)
	return result, nil
}

// Wait blocks until the current session is submitted or abandoned.
func (c *Controller) Wait(ctx context.Context) (domain.SubmissionResult, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return domain.SubmissionResult{}, domain.ErrNotActive
	}

	select {
	case <-done:
	case <-ctx.Done():
		return domain.SubmissionResult{}, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return domain.SubmissionResult{}, domain.ErrNotActive
	}
	return *c.result, nil
}

// Reset returns a submitted controller to Idle so another exam can start.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case domain.StatusIdle:
		return nil
	case domain.StatusSubmitted:
		c.clear()
		return nil
	default:
		return domain.ErrSessionActive
	}
}

// Close abandons the session without submitting it. A submission already in
// progress is allowed to finish first.
func (c *Controller) Close() {
	c.mu.Lock()
	switch c.status {
	case domain.StatusIdle:
		c.mu.Unlock()
		return
	case domain.StatusSubmitting:
		done := c.done
		c.mu.Unlock()
		<-done
		c.mu.Lock()
		c.clear()
		c.mu.Unlock()
		return
	case domain.StatusSubmitted:
		c.clear()
		c.mu.Unlock()
		return
	}

	session, cancel, tasks, done := c.session, c.cancel, c.tasks, c.done
	c.clear()
	c.mu.Unlock()

	cancel()
	_ = tasks.Wait()
	c.deps.Uplink.Stop()
	c.deps.Alarm.Stop()
	c.deps.Registry.Release(session.StudentID, session.AttemptID)
	c.deps.Metrics.Remaining(0)
	close(done)
	slog.Info("Exam session abandoned", "student_id", session.StudentID, "exam_id", session.ExamID)
}

// clear must be called with mu held.
func (c *Controller) clear() {
	c.status = domain.StatusIdle
	c.session = domain.ExamSession{}
	c.timer = nil
	c.submitter = nil
	c.cancel = nil
	c.tasks = nil
	c.done = nil
	c.result = nil
}

// Status returns the lifecycle state.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Snapshot returns the current state for display.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Status:      c.status.String(),
		AlarmActive: c.deps.Alarm.Active(),
	}
	if c.status == domain.StatusIdle {
		return s
	}
	s.StudentID = c.session.StudentID
	s.ExamID = c.session.ExamID
	s.AttemptID = c.session.AttemptID.String()
	if c.status == domain.StatusActive && c.timer != nil {
		s.RemainingSeconds = c.timer.Remaining()
	}
	return s
}
