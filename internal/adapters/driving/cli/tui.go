package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui"
	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// stopPollInterval is how often runTUI checks a stopping session on exit.
const stopPollInterval = 200 * time.Millisecond

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard shows the session, remote files and which stages can run,
and follows progress live. Prompts open as dialogs.

Controls:
  1/2/3    Run a stage
  f        Run a full sync
  s        Stop the active run
  r        Refresh
  d        Detailed progress
  h        Recent runs
  ?        Toggle help
  q        Quit (stops the active run)`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	bridge := tui.NewBridge()
	defer bridge.Close()

	svc, err := loadServices(cmd, Overrides{Gate: bridge, Sink: bridge})
	if err != nil {
		return err
	}
	if svc.Sync == nil {
		return errors.New("sync service not configured")
	}

	unsubscribe := svc.Sync.Subscribe(bridge.Publish)
	defer unsubscribe()

	app, err := tui.NewApp(&tui.Ports{
		Sync:    svc.Sync,
		Files:   svc.Files,
		History: svc.History,
	}, bridge)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, runErr := p.Run()

	if svc.Sync.Status().Status.Active() {
		if err := svc.Sync.RequestStop(cmd.Context()); err != nil && !errors.Is(err, domain.ErrNoActiveSync) {
			return err
		}
		// The run keeps going after the program exits; nothing reads the
		// bridge any more.
		bridge.Close()
		if err := waitForStop(cmd.Context(), svc.Sync, cmd.ErrOrStderr(), stopPollInterval); err != nil {
			return fmt.Errorf("waiting for the run to stop: %w", err)
		}
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// sessionStatus reports the current sync session.
type sessionStatus interface {
	Status() domain.SyncSession
}

// waitForStop blocks until the session leaves its active states, so the
// run's history record is written before the stores close.
func waitForStop(ctx context.Context, sync sessionStatus, w io.Writer, interval time.Duration) error {
	if !sync.Status().Status.Active() {
		return nil
	}
	fmt.Fprintln(w, "Waiting for the active run to stop (Ctrl+C to exit now)...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if session := sync.Status(); !session.Status.Active() {
				if session.Message != "" {
					fmt.Fprintln(w, session.Message)
				}
				return nil
			}
		}
	}
}
