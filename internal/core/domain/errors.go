package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync session is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrNoActiveSync indicates a stop was requested with nothing running.
	ErrNoActiveSync = errors.New("no active sync")

	// ErrDeclined indicates the user declined a confirmation prompt.
	ErrDeclined = errors.New("declined by user")

	// ErrStaleResponse indicates a response arrived for a session that is
	// no longer current and was discarded.
	ErrStaleResponse = errors.New("stale response")

	// Remote call errors.

	// ErrTimeout indicates a remote call exceeded its time limit.
	ErrTimeout = errors.New("request timed out")

	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("transport failure")

	// ErrHTTPStatus indicates the endpoint answered with a non-2xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrApplication indicates the endpoint reported success=false.
	ErrApplication = errors.New("application failure")

	// Run outcomes that end a session without being defects.

	// ErrStallDetected indicates repeated batches made no forward progress.
	ErrStallDetected = errors.New("no further progress possible")

	// ErrUserCancelled indicates the user stopped the sync.
	ErrUserCancelled = errors.New("stopped by user")
)

// TimeoutError reports that a remote action did not answer in time.
type TimeoutError struct {
	Action  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response after %s", e.Action, e.Timeout)
}

// Unwrap allows errors.Is(err, ErrTimeout).
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// TransportError wraps a network-level failure for a remote action.
type TransportError struct {
	Action string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Action, ErrTransport, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Action     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: server responded with HTTP %d", e.Action, e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrHTTPStatus).
func (e *HTTPError) Unwrap() error { return ErrHTTPStatus }

// ApplicationError carries the human-readable message from a failed envelope.
// Error returns the message verbatim so it can be surfaced to users as-is.
type ApplicationError struct {
	Action  string
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// Unwrap allows errors.Is(err, ErrApplication).
func (e *ApplicationError) Unwrap() error { return ErrApplication }

// ErrorKind classifies an error into the sync error taxonomy.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindNetworkTimeout     ErrorKind = "network_timeout"
	KindTransportFailure   ErrorKind = "transport_failure"
	KindHTTPError          ErrorKind = "http_error"
	KindApplicationFailure ErrorKind = "application_failure"
	KindStallDetected      ErrorKind = "stall_detected"
	KindUserCancelled      ErrorKind = "user_cancelled"
	KindOther              ErrorKind = "other"
)

// KindOf returns the taxonomy kind for err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUserCancelled):
		return KindUserCancelled
	case errors.Is(err, ErrStallDetected):
		return KindStallDetected
	case errors.Is(err, ErrTimeout):
		return KindNetworkTimeout
	case errors.Is(err, ErrTransport):
		return KindTransportFailure
	case errors.Is(err, ErrHTTPStatus):
		return KindHTTPError
	case errors.Is(err, ErrApplication):
		return KindApplicationFailure
	default:
		return KindOther
	}
}

// IsOperational reports whether err ends a run without being a defect.
// Stalls and user cancellations are expected outcomes, reported as
// warnings or info rather than errors.
func IsOperational(err error) bool {
	kind := KindOf(err)
	return kind == KindStallDetected || kind == KindUserCancelled
}

// UserMessage returns the message to surface for err. Application failures
// are surfaced verbatim as the remote side reported them.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
