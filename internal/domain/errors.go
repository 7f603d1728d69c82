package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotYetOpen           = errors.New("exam window not yet open")
	ErrWindowClosed         = errors.New("exam window closed")
	ErrSessionActive        = errors.New("session is active")
	ErrNotActive            = errors.New("session is not active")
	ErrSubmissionInProgress = errors.New("submission in progress")
)

// ScheduleError reports why a session may not start. Reason is one of
// "not_yet_open", "window_closed" or "invalid".
type ScheduleError struct {
	Reason string
	Err    error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule %s: %v", e.Reason, e.Err)
}

func (e *ScheduleError) Unwrap() error { return e.Err }

// MediaAcquisitionError means the camera could not be opened.
type MediaAcquisitionError struct {
	Err error
}

func (e *MediaAcquisitionError) Error() string {
	return fmt.Sprintf("media acquisition failed: %v", e.Err)
}

func (e *MediaAcquisitionError) Unwrap() error { return e.Err }

// SignalingError means the offer/answer exchange failed. Status is zero
// when the request never got a response.
type SignalingError struct {
	Status int
	Body   string
	Err    error
}

func (e *SignalingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("signaling failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("signaling failed: %v", e.Err)
}

func (e *SignalingError) Unwrap() error { return e.Err }

// StatusError is a non-success response from the backend.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// StepError wraps the failure of one submission step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
