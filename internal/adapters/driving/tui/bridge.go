package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// bridgeBuffer is how many undelivered events the bridge holds.
const bridgeBuffer = 64

// Bridge carries prompts, notifications and progress from the services into
// the Bubbletea program. It is the confirmation gate and notification sink
// the services are wired with while the TUI runs.
type Bridge struct {
	events    chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ driven.ConfirmationGate = (*Bridge)(nil)
	_ driven.NotificationSink = (*Bridge)(nil)
)

// NewBridge creates an open bridge.
func NewBridge() *Bridge {
	return &Bridge{
		events: make(chan tea.Msg, bridgeBuffer),
		done:   make(chan struct{}),
	}
}

// Confirm shows prompt as a modal and blocks until the user answers, ctx
// ends or the bridge closes.
func (b *Bridge) Confirm(ctx context.Context, prompt domain.Prompt) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case b.events <- messages.ConfirmRequested{Prompt: prompt, Reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-b.done:
		return false, nil
	}

	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-b.done:
		return false, nil
	}
}

// Notify implements driven.NotificationSink.
func (b *Bridge) Notify(ctx context.Context, n domain.Notification) {
	select {
	case b.events <- messages.NotificationReceived{Notification: n}:
	case <-ctx.Done():
		logger.Warn("tui: notification %q not shown: %v", n.Title, ctx.Err())
	case <-b.done:
	}
}

// Publish forwards a progress event. Events are dropped while the
// program is not keeping up; the next one carries the latest state.
func (b *Bridge) Publish(ev domain.ProgressEvent) {
	select {
	case b.events <- messages.ProgressUpdated{Event: ev}:
	case <-b.done:
	default:
		logger.Debug("tui: dropped progress event at %.1f%%", ev.Overall)
	}
}

// Listen returns a command that waits for the next event.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close releases anything blocked on the bridge. Pending prompts are
// answered with false.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
