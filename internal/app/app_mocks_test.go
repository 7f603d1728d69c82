package app

import (
	"context"
	"sync"

	"github.com/pscheid92/examguard/internal/domain"
)

// --- Mock implementations ---

type mockUplink struct {
	mu      sync.Mutex
	startFn func(ctx context.Context, studentID, examID int64) error
	starts  int
	stops   int
}

func (m *mockUplink) Start(ctx context.Context, studentID, examID int64) error {
	m.mu.Lock()
	m.starts++
	fn := m.startFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, studentID, examID)
	}
	return nil
}

func (m *mockUplink) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *mockUplink) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

type mockBackend struct {
	mu             sync.Mutex
	calls          []string
	statusStartFn  func(ctx context.Context, studentID int64) error
	statusSubmitFn func(ctx context.Context, studentID int64) error
	classifyFn     func(ctx context.Context, userID, examID int64) error
	submitFn       func(ctx context.Context, userID, examID int64) error
	behaviorLogsFn func(ctx context.Context, userID int64) ([]domain.BehaviorLogEntry, error)
}

func (m *mockBackend) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockBackend) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockBackend) count(call string) int {
	n := 0
	for _, c := range m.getCalls() {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockBackend) UpdateStatusStart(ctx context.Context, studentID int64) error {
	m.record("status_start")
	if m.statusStartFn != nil {
		return m.statusStartFn(ctx, studentID)
	}
	return nil
}

func (m *mockBackend) UpdateStatusSubmit(ctx context.Context, studentID int64) error {
	m.record(domain.StepStatusSubmit)
	if m.statusSubmitFn != nil {
		return m.statusSubmitFn(ctx, studentID)
	}
	return nil
}

func (m *mockBackend) ClassifyBehaviorLogs(ctx context.Context, userID, examID int64) error {
	m.record(domain.StepClassify)
	if m.classifyFn != nil {
		return m.classifyFn(ctx, userID, examID)
	}
	return nil
}

func (m *mockBackend) SubmitExam(ctx context.Context, userID, examID int64) error {
	m.record(domain.StepSubmitRecord)
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, examID)
	}
	return nil
}

func (m *mockBackend) BehaviorLogs(ctx context.Context, userID int64) ([]domain.BehaviorLogEntry, error) {
	m.record(domain.StepFetchLogs)
	if m.behaviorLogsFn != nil {
		return m.behaviorLogsFn(ctx, userID)
	}
	return nil, nil
}

type mockWarningFeed struct {
	mu     sync.Mutex
	labels []string
	err    error
}

func (m *mockWarningFeed) LastWarning(_ context.Context, _, _ int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if len(m.labels) == 0 {
		return "", nil
	}
	label := m.labels[0]
	if len(m.labels) > 1 {
		m.labels = m.labels[1:]
	}
	return label, nil
}

type mockCaptureFeed struct {
	mu  sync.Mutex
	at  float64
	err error
}

func (m *mockCaptureFeed) LastCapture(_ context.Context, _, _ int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.at, m.err
}

func (m *mockCaptureFeed) set(at float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.at = at
}

type mockTone struct {
	mu    sync.Mutex
	beeps int
	err   error
}

func (m *mockTone) Beep(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beeps++
	return m.err
}

func (m *mockTone) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beeps
}

// mockAlarm counts effective transitions, not calls.
type mockAlarm struct {
	mu      sync.Mutex
	active  bool
	starts  int
	stops   int
	startFn func() error
}

func (m *mockAlarm) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return nil
	}
	if m.startFn != nil {
		if err := m.startFn(); err != nil {
			return err
		}
	}
	m.active = true
	m.starts++
	return nil
}

func (m *mockAlarm) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	m.active = false
	m.stops++
}

func (m *mockAlarm) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *mockAlarm) counts() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

type mockPresenter struct {
	mu        sync.Mutex
	warnings  []string
	notices   []string
	remaining []int
	summaries []domain.SubmissionResult
}

func (m *mockPresenter) ShowWarning(_ context.Context, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, label)
}

func (m *mockPresenter) ShowNotice(_ context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, message)
}

func (m *mockPresenter) ShowRemaining(_ context.Context, seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = append(m.remaining, seconds)
}

func (m *mockPresenter) ShowSummary(_ context.Context, result domain.SubmissionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, result)
}

func (m *mockPresenter) getNotices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.notices...)
}

func (m *mockPresenter) getWarnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warnings...)
}

func (m *mockPresenter) summaryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.summaries)
}
