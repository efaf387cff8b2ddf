package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// run starts stage on the orchestrator. The command blocks until the run
// returns, while prompts and progress arrive through the bridge.
func (a *App) run(stage domain.Stage) tea.Cmd {
	orch := a.ports.Sync
	ctx := a.ctx
	return func() tea.Msg {
		var (
			res *domain.RunResult
			err error
		)
		if stage == domain.StageFull {
			res, err = orch.RunFullSync(ctx)
		} else {
			res, err = orch.RunStage(ctx, stage)
		}
		return messages.RunFinished{Stage: stage, Result: res, Err: err}
	}
}

// stop asks the orchestrator to stop, which prompts through the bridge.
func (a *App) stop() tea.Cmd {
	orch := a.ports.Sync
	ctx := a.ctx
	return func() tea.Msg {
		return messages.StopFinished{Err: orch.Stop(ctx)}
	}
}

func (a *App) loadFiles() tea.Cmd {
	files := a.ports.Files
	ctx := a.ctx
	return func() tea.Msg {
		st, elig, err := files.CheckFiles(ctx)
		return messages.FilesLoaded{Status: st, Eligibility: elig, Err: err}
	}
}

func (a *App) loadDetail() tea.Cmd {
	files := a.ports.Files
	ctx := a.ctx
	return func() tea.Msg {
		p, err := files.Progress(ctx)
		return messages.DetailLoaded{Progress: p, Err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.ports.History == nil {
		return nil
	}
	history := a.ports.History
	ctx := a.ctx
	return func() tea.Msg {
		runs, err := history.Recent(ctx, historyLimit)
		return messages.HistoryLoaded{Runs: runs, Err: err}
	}
}
