package notify

import (
	"context"
	"sync"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/logger"
)

var (
	_ driven.NotificationSink = Log{}
	_ driven.NotificationSink = Multi(nil)
	_ driven.NotificationSink = (*Recorder)(nil)
)

// Log writes notifications to the logger. Errors are always shown; other
// kinds only in verbose mode.
type Log struct{}

// Notify implements driven.NotificationSink.
func (Log) Notify(_ context.Context, n domain.Notification) {
	switch n.Kind {
	case domain.NotifyError:
		logger.Error("%s: %s", n.Title, n.Message)
	case domain.NotifyWarning:
		logger.Warn("%s: %s", n.Title, n.Message)
	default:
		logger.Info("%s: %s", n.Title, n.Message)
	}
}

// Multi delivers each notification to every non-nil sink in order.
type Multi []driven.NotificationSink

// Notify implements driven.NotificationSink.
func (m Multi) Notify(ctx context.Context, n domain.Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(ctx, n)
		}
	}
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []domain.Notification
	// OnNotify, if set, is called after each notification is stored.
	OnNotify func(domain.Notification)
}

// Notify implements driven.NotificationSink.
func (r *Recorder) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	hook := r.OnNotify
	r.mu.Unlock()

	if hook != nil {
		hook(n)
	}
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (domain.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return domain.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
