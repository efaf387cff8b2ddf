package domain

import (
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of a SyncSession.
type SessionStatus int

const (
	StatusIdle SessionStatus = iota
	StatusRunning
	StatusStopping
	StatusSucceeded
	StatusFailed
	StatusStoppedByUser
)

// String returns the string representation of the status.
func (s SessionStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusStoppedByUser:
		return "stopped_by_user"
	default:
		return "unknown"
	}
}

// Active reports whether a session in this status still owns the job.
func (s SessionStatus) Active() bool {
	return s == StatusRunning || s == StatusStopping
}

// Terminal reports whether the status ends a session.
func (s SessionStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusStoppedByUser
}

// SyncSession is the single mutable record of an in-flight orchestration.
//
// All status changes go through the transition methods below; callers
// hold the owner's lock while invoking them.
type SyncSession struct {
	// ID tags every remote call made on behalf of this session.
	ID string

	// Stage is what the session is running.
	Stage Stage

	// Status is the lifecycle state.
	Status SessionStatus

	// CancelRequested is set by a stop request and only cleared by Begin.
	CancelRequested bool

	// StartedAt is when the session entered Running.
	StartedAt time.Time

	// Percentage is the last overall progress surfaced to observers.
	Percentage float64

	// Message is the last progress message.
	Message string
}

// Begin moves an idle or finished session into Running for a new run.
// It refuses while another run is active.
func (s *SyncSession) Begin(id string, stage Stage, now time.Time) error {
	if s.Status.Active() {
		return fmt.Errorf("%w: %s is %s", ErrSyncInProgress, s.Stage.Title(), s.Status)
	}
	*s = SyncSession{
		ID:        id,
		Stage:     stage,
		Status:    StatusRunning,
		StartedAt: now,
	}
	return nil
}

// RequestCancel marks the running session for cooperative cancellation.
func (s *SyncSession) RequestCancel() error {
	if !s.Status.Active() {
		return ErrNoActiveSync
	}
	s.CancelRequested = true
	s.Status = StatusStopping
	return nil
}

// Advance records a new overall percentage. The surfaced value never
// decreases within a session; the effective value is returned.
func (s *SyncSession) Advance(pct float64, message string) float64 {
	pct = ClampPercent(pct)
	if pct > s.Percentage {
		s.Percentage = pct
	}
	if message != "" {
		s.Message = message
	}
	return s.Percentage
}

// Finish moves an active session into the terminal status matching outcome.
func (s *SyncSession) Finish(outcome Outcome) {
	switch outcome {
	case OutcomeSucceeded, OutcomeStalled:
		s.Status = StatusSucceeded
	case OutcomeStopped:
		s.Status = StatusStoppedByUser
	default:
		s.Status = StatusFailed
	}
}

// Reset returns a terminal session to Idle, keeping its record fields for
// status queries.
func (s *SyncSession) Reset() {
	if s.Status.Terminal() {
		s.Status = StatusIdle
	}
}

// Owns reports whether a response tagged with id belongs to this session
// and the session can still accept it.
func (s *SyncSession) Owns(id string) bool {
	return id != "" && s.ID == id && s.Status.Active()
}
