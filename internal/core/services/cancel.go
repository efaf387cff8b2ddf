package services

import "sync/atomic"

// CancelToken carries a cooperative cancellation request into long-running
// loops. It is checked only at safe checkpoints and never aborts a request
// that is already in flight.
type CancelToken struct {
	cancelled atomic.Bool
}

// NewCancelToken returns a token that has not been cancelled.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests cancellation. It cannot be undone.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether cancellation was requested. A nil token is
// never cancelled.
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}
