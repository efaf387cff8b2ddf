package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// maxNotifications is how many notifications the dashboard keeps.
const maxNotifications = 5

// historyLimit is how many runs the history view loads.
const historyLimit = 15

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	bridge *Bridge
	ctx    context.Context

	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusBar *status.Bar
	bar       progress.Model
	help      help.Model

	currentView messages.ViewType

	// session mirrors the orchestrator's session after each event.
	session domain.SyncSession
	// current is the stage executing now; differs from session.Stage
	// during a full sync.
	current domain.Stage

	files       *domain.FileStatus
	eligibility domain.Eligibility
	detail      *domain.DetailedProgress
	history     []domain.RunRecord

	lastResult    *domain.RunResult
	notifications []domain.Notification

	// confirm is the open prompt, if any.
	confirm *messages.ConfirmRequested

	// running is set from the key press until the run returns.
	running bool
	// quitting holds the program open until the stopped run returns.
	quitting bool

	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a dashboard over ports. bridge must be the gate and sink
// the services were wired with.
func NewApp(ports *Ports, bridge *Bridge) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if bridge == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingBridge)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		bridge:      bridge,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		statusBar:   status.NewBar(s, km),
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:        help.New(),
		currentView: messages.ViewDashboard,
		session:     ports.Sync.Status(),
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.statusBar.SetState(status.StateLoading)
	return tea.Batch(
		tea.SetWindowTitle("stagesync"),
		a.bridge.Listen(),
		a.loadFiles(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.ConfirmRequested:
		if a.confirm != nil {
			// One prompt at a time; refuse the newcomer.
			msg.Reply <- false
			return a, a.bridge.Listen()
		}
		a.confirm = &msg
		a.statusBar.SetState(status.StateConfirm)
		a.statusBar.SetMessage(msg.Prompt.Title)
		return a, a.bridge.Listen()

	case messages.ProgressUpdated:
		a.applyProgress(msg.Event)
		return a, a.bridge.Listen()

	case messages.NotificationReceived:
		a.notifications = append(a.notifications, msg.Notification)
		if len(a.notifications) > maxNotifications {
			a.notifications = a.notifications[len(a.notifications)-maxNotifications:]
		}
		return a, a.bridge.Listen()

	case messages.RunFinished:
		return a, a.finishRun(msg)

	case messages.StopFinished:
		switch {
		case errors.Is(msg.Err, domain.ErrDeclined):
			a.statusBar.SetState(status.StateRunning)
			a.statusBar.SetMessage("Still running")
		case errors.Is(msg.Err, domain.ErrNoActiveSync):
			a.statusBar.SetState(status.StateReady)
			a.statusBar.SetMessage("No sync in progress")
		case msg.Err != nil:
			a.setError(msg.Err)
		default:
			a.statusBar.SetState(status.StateStopping)
		}
		return a, nil

	case messages.FilesLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.files = msg.Status
		a.eligibility = msg.Eligibility
		if a.statusBar.State() == status.StateLoading {
			a.statusBar.Clear()
		}
		return a, nil

	case messages.DetailLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.detail = msg.Progress
		return a, nil

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.history = msg.Runs
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, a.quit()
	}

	return a, nil
}

// handleKey routes key presses. An open prompt captures every key.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	if a.confirm != nil {
		switch {
		case keymap.Matches(k, a.keymap.Confirm):
			a.answer(true)
		case keymap.Matches(k, a.keymap.Deny), k == "ctrl+c":
			a.answer(false)
		}
		return a, nil
	}

	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, a.quit()
	case keymap.Matches(k, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			return a, a.switchView(messages.ViewDashboard)
		}
		return a, a.switchView(messages.ViewHelp)
	case keymap.Matches(k, a.keymap.Back):
		return a, a.switchView(messages.ViewDashboard)
	case keymap.Matches(k, a.keymap.Stage1):
		return a, a.startRun(domain.StageOne)
	case keymap.Matches(k, a.keymap.Stage2):
		return a, a.startRun(domain.StageTwo)
	case keymap.Matches(k, a.keymap.Stage3):
		return a, a.startRun(domain.StageThree)
	case keymap.Matches(k, a.keymap.Full):
		return a, a.startRun(domain.StageFull)
	case keymap.Matches(k, a.keymap.Stop):
		if !a.running {
			a.statusBar.SetState(status.StateReady)
			a.statusBar.SetMessage("No sync in progress")
			return a, nil
		}
		return a, a.stop()
	case keymap.Matches(k, a.keymap.Refresh):
		return a, a.refresh()
	case keymap.Matches(k, a.keymap.Detail):
		return a, a.switchView(messages.ViewDetail)
	case keymap.Matches(k, a.keymap.History):
		return a, a.switchView(messages.ViewHistory)
	}
	return a, nil
}

// answer replies to the open prompt and closes it.
func (a *App) answer(ok bool) {
	a.confirm.Reply <- ok
	a.confirm = nil
	if a.running {
		a.statusBar.SetState(status.StateRunning)
		if a.session.Message != "" {
			a.statusBar.SetMessage(a.session.Message)
		}
		return
	}
	a.statusBar.Clear()
}

// switchView changes the active view and loads what it shows.
func (a *App) switchView(v messages.ViewType) tea.Cmd {
	a.currentView = v
	switch v {
	case messages.ViewDetail:
		return a.loadDetail()
	case messages.ViewHistory:
		return a.loadHistory()
	case messages.ViewDashboard, messages.ViewHelp:
	}
	return nil
}

// refresh reloads whatever the active view shows.
func (a *App) refresh() tea.Cmd {
	switch a.currentView {
	case messages.ViewDetail:
		return a.loadDetail()
	case messages.ViewHistory:
		return a.loadHistory()
	case messages.ViewDashboard, messages.ViewHelp:
	}
	a.statusBar.SetState(status.StateLoading)
	return a.loadFiles()
}

// startRun begins a stage or full sync if nothing is running and the
// stage's prerequisites exist.
func (a *App) startRun(stage domain.Stage) tea.Cmd {
	if a.running {
		a.statusBar.SetMessage(a.session.Stage.Title() + " is already running")
		return nil
	}
	if a.files != nil && stage != domain.StageFull {
		if e := a.eligibility.For(stage); !e.Enabled {
			a.statusBar.SetState(status.StateReady)
			a.statusBar.SetMessage(e.Reason)
			return nil
		}
	}

	a.running = true
	a.err = nil
	a.statusBar.SetState(status.StateRunning)
	a.statusBar.SetMessage("Starting " + stage.Title())
	return a.run(stage)
}

// applyProgress mirrors an orchestrator event into the dashboard.
func (a *App) applyProgress(ev domain.ProgressEvent) {
	a.session = a.ports.Sync.Status()
	a.current = ev.Current
	if !a.running || a.confirm != nil {
		return
	}
	if ev.Status == domain.StatusStopping {
		a.statusBar.SetState(status.StateStopping)
		return
	}
	a.statusBar.SetState(status.StateRunning)
	if ev.Message != "" {
		a.statusBar.SetMessage(fmt.Sprintf("%s: %s", ev.Current.Title(), ev.Message))
	}
}

// finishRun records a returned run and refreshes the artifact status.
func (a *App) finishRun(msg messages.RunFinished) tea.Cmd {
	a.running = false
	a.session = a.ports.Sync.Status()
	a.current = domain.StageNone
	if a.quitting {
		a.lastResult = msg.Result
		return tea.Quit
	}

	if msg.Err != nil {
		a.setError(msg.Err)
		return a.loadFiles()
	}

	a.lastResult = msg.Result
	a.statusBar.Clear()
	if msg.Result != nil && msg.Result.Outcome == domain.OutcomeDeclined {
		a.statusBar.SetMessage("Cancelled")
		return nil
	}
	if msg.Result != nil && msg.Result.Outcome == domain.OutcomeFailed {
		a.err = errors.New(msg.Result.Message)
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Result.Message)
	}
	return a.loadFiles()
}

// quit exits, first stopping any active run without confirmation. The
// program stays up until the run returns so its notification and history
// record are written; quitting again exits at once.
func (a *App) quit() tea.Cmd {
	if a.confirm != nil {
		a.answer(false)
	}
	if !a.running || a.quitting {
		return tea.Quit
	}

	a.quitting = true
	if err := a.ports.Sync.RequestStop(a.ctx); err != nil && !errors.Is(err, domain.ErrNoActiveSync) {
		a.setError(err)
		return nil
	}
	a.statusBar.SetState(status.StateStopping)
	a.statusBar.SetMessage("Stopping before exit; press q again to quit now")
	return nil
}

// Quitting reports whether the app is waiting for a run to stop to exit.
func (a *App) Quitting() bool {
	return a.quitting
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(domain.UserMessage(err))
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.statusBar.SetWidth(width)
	a.help.Width = width

	barWidth := width - 4
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 10 {
		barWidth = 10
	}
	a.bar.Width = barWidth
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Running reports whether a run started from the dashboard is in flight.
func (a *App) Running() bool {
	return a.running
}

// Prompt returns the open confirmation prompt, if any.
func (a *App) Prompt() (domain.Prompt, bool) {
	if a.confirm == nil {
		return domain.Prompt{}, false
	}
	return a.confirm.Prompt, true
}

// Notifications returns the retained notifications, oldest first.
func (a *App) Notifications() []domain.Notification {
	return a.notifications
}

// StatusBar returns the status bar component.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// LastResult returns the most recent run result.
func (a *App) LastResult() *domain.RunResult {
	return a.lastResult
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}
