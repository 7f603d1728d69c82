package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an exam session.
type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusSubmitting
	StatusSubmitted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusSubmitting:
		return "submitting"
	case StatusSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Schedule is the exam window as published by the backend.
// Date is YYYY-MM-DD, StartTime is HH:MM or HH:MM:SS.
type Schedule struct {
	Date            string
	StartTime       string
	DurationMinutes int
}

// ExamSession identifies one attempt of one student at one exam.
type ExamSession struct {
	StudentID int64
	ExamID    int64
	Schedule  Schedule
	AttemptID uuid.UUID
}

// NewExamSession creates a session with a fresh attempt ID.
func NewExamSession(studentID, examID int64, schedule Schedule) ExamSession {
	return ExamSession{
		StudentID: studentID,
		ExamID:    examID,
		Schedule:  schedule,
		AttemptID: uuid.New(),
	}
}

// SessionDescription is an SDP offer or answer as exchanged with the signaling endpoint.
type SessionDescription struct {
	SDP  string
	Type string
}
