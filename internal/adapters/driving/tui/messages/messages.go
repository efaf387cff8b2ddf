// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDashboard shows the session, files and eligibility.
	ViewDashboard ViewType = iota
	// ViewDetail shows the remote job's detailed progress.
	ViewDetail
	// ViewHistory lists recent runs.
	ViewHistory
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewDetail:
		return "detail"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ConfirmRequested asks the user to answer a prompt. Exactly one value
// must be sent on Reply.
type ConfirmRequested struct {
	Prompt domain.Prompt
	Reply  chan<- bool
}

// ProgressUpdated carries an orchestrator progress event.
type ProgressUpdated struct {
	Event domain.ProgressEvent
}

// NotificationReceived carries a run outcome report.
type NotificationReceived struct {
	Notification domain.Notification
}

// FilesLoaded carries the artifact status.
type FilesLoaded struct {
	Status      *domain.FileStatus
	Eligibility domain.Eligibility
	Err         error
}

// DetailLoaded carries the remote job's detailed progress.
type DetailLoaded struct {
	Progress *domain.DetailedProgress
	Err      error
}

// HistoryLoaded carries recent runs.
type HistoryLoaded struct {
	Runs []domain.RunRecord
	Err  error
}

// RunFinished is sent when a stage or full sync returns.
type RunFinished struct {
	Stage  domain.Stage
	Result *domain.RunResult
	Err    error
}

// StopFinished is sent when a stop request returns.
type StopFinished struct {
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
