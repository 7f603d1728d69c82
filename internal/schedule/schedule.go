// Package schedule resolves an exam's published schedule into a wall-clock window.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/examguard/internal/domain"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	secondsLayout = "15:04:05"
)

// Window is the half-open interval [Start, End) during which a session may run.
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolve interprets s in loc.
func Resolve(s domain.Schedule, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	if s.DurationMinutes <= 0 {
		return Window{}, invalid(fmt.Errorf("duration must be positive, got %d minutes", s.DurationMinutes))
	}

	start, err := time.ParseInLocation(dateLayout+" "+clockLayout, s.Date+" "+s.StartTime, loc)
	if err != nil {
		var secErr error
		start, secErr = time.ParseInLocation(dateLayout+" "+secondsLayout, s.Date+" "+s.StartTime, loc)
		if secErr != nil {
			return Window{}, invalid(fmt.Errorf("parse start %q %q: %w", s.Date, s.StartTime, err))
		}
	}

	return Window{
		Start: start,
		End:   start.Add(time.Duration(s.DurationMinutes) * time.Minute),
	}, nil
}

// Remaining returns the whole seconds left at now. A window that has reached
// its end is closed, so an open window always has at least one second left.
func (w Window) Remaining(now time.Time) (int, error) {
	if now.Before(w.Start) {
		return 0, &domain.ScheduleError{Reason: "not_yet_open", Err: domain.ErrNotYetOpen}
	}
	if !now.Before(w.End) {
		return 0, &domain.ScheduleError{Reason: "window_closed", Err: domain.ErrWindowClosed}
	}
	secs := int(w.End.Sub(now) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs, nil
}

// Remaining resolves s and returns the seconds left at now.
func Remaining(s domain.Schedule, loc *time.Location, now time.Time) (int, error) {
	w, err := Resolve(s, loc)
	if err != nil {
		return 0, err
	}
	return w.Remaining(now)
}

var errInvalid = errors.New("invalid schedule")

func invalid(err error) error {
	return &domain.ScheduleError{Reason: "invalid", Err: fmt.Errorf("%w: %w", errInvalid, err)}
}
