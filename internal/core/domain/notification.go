package domain

// NotificationKind is the severity of a user notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notification is a user-visible outcome report.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
}

// NotificationFor returns the notification kind for a run outcome.
func NotificationFor(o Outcome) NotificationKind {
	switch o {
	case OutcomeSucceeded:
		return NotifySuccess
	case OutcomeStalled:
		return NotifyWarning
	case OutcomeStopped, OutcomeDeclined:
		return NotifyInfo
	default:
		return NotifyError
	}
}

// Prompt is a confirmation request presented before a destructive or
// long-running action.
type Prompt struct {
	Title       string
	Message     string
	Affirmative string
	Negative    string
	// Destructive marks prompts guarding irreversible deletions.
	Destructive bool
}
