package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/examguard/internal/adapter/metrics"
	"github.com/pscheid92/examguard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitFixture struct {
	backend   *mockBackend
	uplink    *mockUplink
	alarm     *mockAlarm
	presenter *mockPresenter
	metrics   *metrics.SessionMetrics
	submitter *Submitter
	session   domain.ExamSession
}

func newSubmitFixture() *submitFixture {
	f := &submitFixture{
		backend:   &mockBackend{},
		uplink:    &mockUplink{},
		alarm:     &mockAlarm{},
		presenter: &mockPresenter{},
		metrics:   metrics.NewSessionMetrics(prometheus.NewRegistry()),
		session:   domain.NewExamSession(7, 42, domain.Schedule{Date: "2025-03-10", StartTime: "09:00", DurationMinutes: 20}),
	}
	f.submitter = NewSubmitter(f.backend, f.uplink, f.alarm, f.presenter, f.metrics)
	return f
}

func stepNames(steps []domain.StepOutcome) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Step)
	}
	return out
}

func TestSubmitter_RunsStepsInOrder(t *testing.T) {
	f := newSubmitFixture()
	_ = f.alarm.Start(context.Background())

	result, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerManual)
	require.NoError(t, err)

	assert.False(t, result.Failed)
	assert.Equal(t, domain.TriggerManual, result.Trigger)
	assert.Equal(t, []string{
		domain.StepStatusSubmit, domain.StepTeardown, domain.StepClassify, domain.StepSubmitRecord, domain.StepFetchLogs,
	}, stepNames(result.Steps))
	assert.Empty(t, result.Failures())
	assert.Equal(t, []string{
		domain.StepStatusSubmit, domain.StepClassify, domain.StepSubmitRecord, domain.StepFetchLogs,
	}, f.backend.getCalls())
	assert.Equal(t, 1, f.uplink.stopCount())
	assert.False(t, f.alarm.Active())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmissionSteps.WithLabelValues(domain.StepSubmitRecord, metrics.OutcomeOK)))
}

func TestSubmitter_ConcurrentSubmitExecutesOnce(t *testing.T) {
	f := newSubmitFixture()

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerManual)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, busy := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSubmissionInProgress):
			busy++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, busy)
	assert.Equal(t, 1, f.backend.count(domain.StepSubmitRecord))
}

func TestSubmitter_ClassifyFailureStillFetchesLogs(t *testing.T) {
	f := newSubmitFixture()
	f.backend.classifyFn = func(context.Context, int64, int64) error {
		return &domain.StatusError{Status: 500, Body: "model offline"}
	}
	f.backend.behaviorLogsFn = func(context.Context, int64) ([]domain.BehaviorLogEntry, error) {
		return []domain.BehaviorLogEntry{{ImagePath: "a.jpg", ExamID: 42}}, nil
	}

	result, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerTimer)
	require.NoError(t, err)

	assert.False(t, result.Failed)
	require.Len(t, result.Failures(), 1)
	var stepErr *domain.StepError
	require.ErrorAs(t, result.Failures()[0].Err, &stepErr)
	assert.Equal(t, domain.StepClassify, stepErr.Step)
	var statusErr *domain.StatusError
	assert.ErrorAs(t, stepErr, &statusErr)
	assert.Len(t, result.Logs, 1)
	assert.Equal(t, 1, f.backend.count(domain.StepFetchLogs))
	assert.Len(t, f.presenter.getNotices(), 1)
}

func TestSubmitter_SubmitRecordFailureMarksFailed(t *testing.T) {
	f := newSubmitFixture()
	f.backend.submitFn = func(context.Context, int64, int64) error { return errors.New("connection reset") }

	result, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerManual)
	require.NoError(t, err)

	assert.True(t, result.Failed)
	assert.Equal(t, 1, f.backend.count(domain.StepFetchLogs))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmissionSteps.WithLabelValues(domain.StepSubmitRecord, metrics.OutcomeError)))
}

func TestSubmitter_StatusFailureIsNotFatal(t *testing.T) {
	f := newSubmitFixture()
	f.backend.statusSubmitFn = func(context.Context, int64) error { return errors.New("timeout") }

	result, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerManual)
	require.NoError(t, err)

	assert.False(t, result.Failed)
	assert.Equal(t, 1, f.backend.count(domain.StepSubmitRecord))
}

func TestSubmitter_PanickingStepIsIsolated(t *testing.T) {
	f := newSubmitFixture()
	f.backend.classifyFn = func(context.Context, int64, int64) error { panic("nil model") }

	result, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerManual)
	require.NoError(t, err)

	require.Len(t, result.Failures(), 1)
	assert.Contains(t, result.Failures()[0].Err.Error(), "panic: nil model")
	assert.Equal(t, 1, f.backend.count(domain.StepSubmitRecord))
}

func TestSubmitter_LogsFilteredAndMostRecentFirst(t *testing.T) {
	f := newSubmitFixture()
	f.backend.behaviorLogsFn = func(context.Context, int64) ([]domain.BehaviorLogEntry, error) {
		return []domain.BehaviorLogEntry{
			{ImagePath: "1.jpg", ExamID: 42, Timestamp: "09:01"},
			{ImagePath: "x.jpg", ExamID: 99, Timestamp: "09:02"},
			{ImagePath: "2.jpg", ExamID: 42, Timestamp: "09:03"},
			{ImagePath: "3.jpg", ExamID: 42, Timestamp: "09:04"},
		}, nil
	}

	result, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerManual)
	require.NoError(t, err)

	require.Len(t, result.Logs, 3)
	assert.Equal(t, "3.jpg", result.Logs[0].ImagePath)
	assert.Equal(t, "2.jpg", result.Logs[1].ImagePath)
	assert.Equal(t, "1.jpg", result.Logs[2].ImagePath)
}

func TestSubmitter_FetchFailureLeavesNoLogs(t *testing.T) {
	f := newSubmitFixture()
	f.backend.behaviorLogsFn = func(context.Context, int64) ([]domain.BehaviorLogEntry, error) {
		return nil, errors.New("failed after 3 attempts")
	}

	result, err := f.submitter.Submit(context.Background(), f.session, domain.TriggerManual)
	require.NoError(t, err)

	assert.False(t, result.Failed)
	assert.Empty(t, result.Logs)
	require.Len(t, result.Failures(), 1)
	assert.Equal(t, domain.StepFetchLogs, result.Failures()[0].Step)
}
