package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/stagesync/internal/core/domain"
)

func newTestApp(t *testing.T) (*App, *mockSyncOrchestrator, *mockFileService) {
	t.Helper()
	orch := &mockSyncOrchestrator{}
	files := &mockFileService{status: &domain.FileStatus{
		SyncData: domain.ArtifactInfo{Exists: true, Date: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}}
	bridge := NewBridge()
	t.Cleanup(bridge.Close)

	app, err := NewApp(&Ports{Sync: orch, Files: files, History: &mockHistoryService{}}, bridge)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app, orch, files
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// loadFiles feeds the app the artifact status the mock reports.
func loadFiles(t *testing.T, app *App) {
	t.Helper()
	msg := app.loadFiles()()
	app.Update(msg)
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Sync: &mockSyncOrchestrator{}}, NewBridge())

	assert.ErrorIs(t, err, ErrMissingFileService)
	assert.Nil(t, app)
}

func TestNewApp_MissingBridge(t *testing.T) {
	app, err := NewApp(&Ports{Sync: &mockSyncOrchestrator{}, Files: &mockFileService{}}, nil)

	assert.ErrorIs(t, err, ErrMissingBridge)
	assert.Nil(t, app)
}

func TestApp_InitLoadsFiles(t *testing.T) {
	app, _, _ := newTestApp(t)

	cmd := app.Init()

	assert.NotNil(t, cmd)
	assert.Equal(t, status.StateLoading, app.StatusBar().State())
}

func TestApp_ViewBeforeReady(t *testing.T) {
	bridge := NewBridge()
	defer bridge.Close()
	app, err := NewApp(&Ports{Sync: &mockSyncOrchestrator{}, Files: &mockFileService{}}, bridge)
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
	assert.False(t, app.Ready())
}

func TestApp_WindowSize(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.StatusBar().Width())
	assert.Equal(t, 60, app.bar.Width)
}

func TestApp_FilesLoadedShowsEligibility(t *testing.T) {
	app, _, _ := newTestApp(t)

	loadFiles(t, app)

	view := app.View()
	assert.Contains(t, view, "Stage 1 ready")
	assert.Contains(t, view, "Stage 2 ready")
	assert.Contains(t, view, "Run Stage 2 first to build the manifest")
}

func TestApp_StageKeyRunsEligibleStage(t *testing.T) {
	app, orch, _ := newTestApp(t)
	loadFiles(t, app)
	orch.result = &domain.RunResult{Stage: domain.StageTwo, Outcome: domain.OutcomeSucceeded, Message: "Manifest built"}

	_, cmd := app.Update(keyPress('2'))
	require.NotNil(t, cmd)
	assert.True(t, app.Running())
	assert.Equal(t, status.StateRunning, app.StatusBar().State())

	msg := cmd()
	finished, ok := msg.(messages.RunFinished)
	require.True(t, ok)
	assert.Equal(t, []domain.Stage{domain.StageTwo}, orch.ran)

	_, refresh := app.Update(finished)
	assert.False(t, app.Running())
	assert.NotNil(t, refresh)
	assert.Equal(t, domain.OutcomeSucceeded, app.LastResult().Outcome)
	assert.Contains(t, app.View(), "Manifest built")
}

func TestApp_IneligibleStageDoesNotRun(t *testing.T) {
	app, orch, _ := newTestApp(t)
	loadFiles(t, app)

	_, cmd := app.Update(keyPress('3'))

	assert.Nil(t, cmd)
	assert.False(t, app.Running())
	assert.Empty(t, orch.ran)
	assert.Equal(t, "Run Stage 2 first to build the manifest", app.StatusBar().Message())
}

func TestApp_FullSyncKey(t *testing.T) {
	app, orch, _ := newTestApp(t)
	orch.result = &domain.RunResult{Stage: domain.StageFull, Outcome: domain.OutcomeSucceeded}

	_, cmd := app.Update(keyPress('f'))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []domain.Stage{domain.StageFull}, orch.ran)
}

func TestApp_SecondRunRefusedWhileRunning(t *testing.T) {
	app, _, _ := newTestApp(t)

	_, first := app.Update(keyPress('1'))
	require.NotNil(t, first)
	_, second := app.Update(keyPress('1'))

	assert.Nil(t, second)
	assert.Contains(t, app.StatusBar().Message(), "already running")
}

func TestApp_DeclinedRunShowsCancelled(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(keyPress('1'))

	_, cmd := app.Update(messages.RunFinished{
		Stage:  domain.StageOne,
		Result: &domain.RunResult{Stage: domain.StageOne, Outcome: domain.OutcomeDeclined},
	})

	assert.Nil(t, cmd)
	assert.False(t, app.Running())
	assert.Equal(t, "Cancelled", app.StatusBar().Message())
}

func TestApp_FailedRunShowsError(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(keyPress('1'))

	app.Update(messages.RunFinished{
		Stage:  domain.StageOne,
		Result: &domain.RunResult{Stage: domain.StageOne, Outcome: domain.OutcomeFailed, Message: "Source API unreachable"},
	})

	assert.Equal(t, status.StateError, app.StatusBar().State())
	assert.EqualError(t, app.Err(), "Source API unreachable")
}

func TestApp_RunErrorUsesUserMessage(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(keyPress('1'))

	app.Update(messages.RunFinished{Err: domain.ErrSyncInProgress})

	assert.ErrorIs(t, app.Err(), domain.ErrSyncInProgress)
	assert.Equal(t, status.StateError, app.StatusBar().State())
}

func TestApp_ConfirmPromptCapturesKeys(t *testing.T) {
	app, orch, _ := newTestApp(t)
	reply := make(chan bool, 1)

	app.Update(messages.ConfirmRequested{
		Prompt: domain.Prompt{Title: "Run Stage 1?", Message: "Fetch records."},
		Reply:  reply,
	})

	p, open := app.Prompt()
	require.True(t, open)
	assert.Equal(t, "Run Stage 1?", p.Title)
	assert.Equal(t, status.StateConfirm, app.StatusBar().State())
	assert.Contains(t, app.View(), "Fetch records.")

	// Stage keys are ignored while the prompt is open.
	app.Update(keyPress('2'))
	assert.Empty(t, orch.ran)

	app.Update(keyPress('y'))
	assert.True(t, <-reply)
	_, open = app.Prompt()
	assert.False(t, open)
}

func TestApp_ConfirmPromptDeny(t *testing.T) {
	app, _, _ := newTestApp(t)
	reply := make(chan bool, 1)
	app.Update(messages.ConfirmRequested{Prompt: domain.Prompt{Title: "Delete?", Destructive: true}, Reply: reply})

	assert.Contains(t, app.View(), "[y] Delete")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, <-reply)
}

func TestApp_SecondPromptRefused(t *testing.T) {
	app, _, _ := newTestApp(t)
	first := make(chan bool, 1)
	second := make(chan bool, 1)

	app.Update(messages.ConfirmRequested{Prompt: domain.Prompt{Title: "A"}, Reply: first})
	app.Update(messages.ConfirmRequested{Prompt: domain.Prompt{Title: "B"}, Reply: second})

	assert.False(t, <-second)
	p, _ := app.Prompt()
	assert.Equal(t, "A", p.Title)
}

func TestApp_StopWithoutRun(t *testing.T) {
	app, orch, _ := newTestApp(t)

	_, cmd := app.Update(keyPress('s'))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, orch.stops)
	assert.Equal(t, "No sync in progress", app.StatusBar().Message())
}

func TestApp_StopWhileRunning(t *testing.T) {
	app, orch, _ := newTestApp(t)
	app.Update(keyPress('1'))

	_, cmd := app.Update(keyPress('s'))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, 1, orch.stops)
	assert.Equal(t, status.StateStopping, app.StatusBar().State())
}

func TestApp_StopDeclinedKeepsRunning(t *testing.T) {
	app, orch, _ := newTestApp(t)
	orch.stopErr = domain.ErrDeclined
	app.Update(keyPress('1'))

	_, cmd := app.Update(keyPress('s'))
	app.Update(cmd())

	assert.True(t, app.Running())
	assert.Equal(t, "Still running", app.StatusBar().Message())
}

func TestApp_ProgressUpdatesSession(t *testing.T) {
	app, orch, _ := newTestApp(t)
	app.Update(keyPress('f'))
	orch.setSession(domain.SyncSession{
		Stage:      domain.StageFull,
		Status:     domain.StatusRunning,
		Percentage: 45,
		Message:    "Building manifest",
	})

	_, cmd := app.Update(messages.ProgressUpdated{Event: domain.ProgressEvent{
		Stage:   domain.StageFull,
		Current: domain.StageTwo,
		Status:  domain.StatusRunning,
		Overall: 45,
		Message: "Building manifest",
	}})

	assert.NotNil(t, cmd)
	assert.Equal(t, "Stage 2: Building manifest", app.StatusBar().Message())
	view := app.View()
	assert.Contains(t, view, "45.0%")
	assert.Contains(t, view, "Full Sync (Stage 2)")
}

func TestApp_ProgressStoppingStatus(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(keyPress('1'))

	app.Update(messages.ProgressUpdated{Event: domain.ProgressEvent{Status: domain.StatusStopping}})

	assert.Equal(t, status.StateStopping, app.StatusBar().State())
}

func TestApp_NotificationsAreCapped(t *testing.T) {
	app, _, _ := newTestApp(t)

	for i := 0; i < maxNotifications+2; i++ {
		app.Update(messages.NotificationReceived{Notification: domain.Notification{
			Kind:  domain.NotifyInfo,
			Title: string(rune('a' + i)),
		}})
	}

	got := app.Notifications()
	require.Len(t, got, maxNotifications)
	assert.Equal(t, "c", got[0].Title)
}

func TestApp_DetailView(t *testing.T) {
	app, _, files := newTestApp(t)
	files.progress = &domain.DetailedProgress{
		Stage:             2,
		OverallPercentage: 50,
		CurrentProcedure:  "Knee arthroscopy",
		CaseProgress:      domain.EntityProgress{Current: 5, Total: 10, Percentage: 50},
		RecentCases:       []domain.RecentCase{{ID: "C-7", Status: "created"}},
	}

	_, cmd := app.Update(keyPress('d'))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewDetail, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Knee arthroscopy")
	assert.Contains(t, view, "C-7")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewDashboard, app.CurrentView())
}

func TestApp_HistoryView(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.ports.History = &mockHistoryService{runs: []domain.RunRecord{{
		ID:        "s1",
		Stage:     domain.StageThree,
		Outcome:   domain.OutcomeStalled,
		Message:   "No further progress possible",
		StartedAt: time.Now(),
	}}}

	_, cmd := app.Update(keyPress('h'))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewHistory, app.CurrentView())
	assert.Contains(t, app.View(), "No further progress possible")
}

func TestApp_HistoryUnavailable(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.ports.History = nil

	_, cmd := app.Update(keyPress('h'))

	assert.Nil(t, cmd)
	assert.Contains(t, app.View(), "History is not available.")
}

func TestApp_HelpToggle(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Update(keyPress('?'))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "full sync")

	app.Update(keyPress('?'))
	assert.Equal(t, messages.ViewDashboard, app.CurrentView())
}

func TestApp_RefreshReloadsFiles(t *testing.T) {
	app, _, files := newTestApp(t)

	_, cmd := app.Update(keyPress('r'))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, 1, files.checks)
	assert.Equal(t, status.StateReady, app.StatusBar().State())
}

func TestApp_FilesErrorShown(t *testing.T) {
	app, _, files := newTestApp(t)
	files.err = &domain.ApplicationError{Message: "Storage unavailable"}

	loadFiles(t, app)

	assert.Equal(t, status.StateError, app.StatusBar().State())
	assert.Equal(t, "Storage unavailable", app.StatusBar().Message())
}

func TestApp_QuitStopsActiveRunAndWaits(t *testing.T) {
	app, orch, _ := newTestApp(t)
	app.Update(keyPress('1'))

	_, cmd := app.Update(keyPress('q'))

	assert.Nil(t, cmd)
	assert.True(t, app.Quitting())
	assert.Equal(t, 1, orch.forcedStops)
	assert.Equal(t, status.StateStopping, app.StatusBar().State())
	assert.Contains(t, app.StatusBar().Message(), "press q again")

	_, cmd = app.Update(messages.RunFinished{
		Stage:  domain.StageOne,
		Result: &domain.RunResult{Stage: domain.StageOne, Outcome: domain.OutcomeStopped},
	})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.False(t, app.Running())
	assert.Equal(t, domain.OutcomeStopped, app.LastResult().Outcome)
}

func TestApp_QuitTwiceExitsAtOnce(t *testing.T) {
	app, orch, _ := newTestApp(t)
	app.Update(keyPress('1'))
	app.Update(keyPress('q'))

	_, cmd := app.Update(keyPress('q'))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, 1, orch.forcedStops)
}

func TestApp_QuitShowsStopError(t *testing.T) {
	app, orch, _ := newTestApp(t)
	orch.forcedErr = errors.New("session lock lost")
	app.Update(keyPress('1'))

	_, cmd := app.Update(keyPress('q'))

	assert.Nil(t, cmd)
	assert.Equal(t, status.StateError, app.StatusBar().State())
	assert.EqualError(t, app.Err(), "session lock lost")
}

func TestApp_QuitIdle(t *testing.T) {
	app, orch, _ := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, 0, orch.forcedStops)
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Contains(t, app.View(), "Error: boom")
}
