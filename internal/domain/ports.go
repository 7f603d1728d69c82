package domain

import "context"

// Signaler exchanges an SDP offer for the remote answer.
type Signaler interface {
	SendOffer(ctx context.Context, studentID, examID int64, offer SessionDescription) (SessionDescription, error)
}

// WarningFeed returns the latest warning label for a session. An empty label is neutral.
type WarningFeed interface {
	LastWarning(ctx context.Context, studentID, examID int64) (string, error)
}

// CaptureFeed returns the timestamp of the latest evidence capture, zero if none.
type CaptureFeed interface {
	LastCapture(ctx context.Context, studentID, examID int64) (float64, error)
}

// ExamBackend is the set of lifecycle calls made around a session.
type ExamBackend interface {
	UpdateStatusStart(ctx context.Context, studentID int64) error
	UpdateStatusSubmit(ctx context.Context, studentID int64) error
	ClassifyBehaviorLogs(ctx context.Context, userID, examID int64) error
	SubmitExam(ctx context.Context, userID, examID int64) error
	BehaviorLogs(ctx context.Context, userID int64) ([]BehaviorLogEntry, error)
}

// Uplink is the outbound media channel of a session.
type Uplink interface {
	Start(ctx context.Context, studentID, examID int64) error
	Stop()
}

// Alarm is the sustained alert. Start and Stop are idempotent.
type Alarm interface {
	Start(ctx context.Context) error
	Stop()
	Active() bool
}

// Tone plays a one-shot cue.
type Tone interface {
	Beep(ctx context.Context) error
}

// Presenter is the UI boundary. Implementations must not block.
type Presenter interface {
	ShowWarning(ctx context.Context, label string)
	ShowNotice(ctx context.Context, message string)
	ShowRemaining(ctx context.Context, seconds int)
	ShowSummary(ctx context.Context, result SubmissionResult)
}
