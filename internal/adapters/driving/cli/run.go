package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/logger"
)

var stageCmd = &cobra.Command{
	Use:   "stage <1|2|3>",
	Short: "Run a single stage",
	Long: `Runs one stage after confirmation.

  1  fetch and categorise source records into the sync data file
  2  build the cross-reference manifest (progress is polled)
  3  create and update target records in batches until done

Press Ctrl+C once to stop after the current request, twice to abort.`,
	Args: cobra.ExactArgs(1),
	RunE: runStage,
}

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Run stages 1, 2 and 3 in sequence",
	Long: `Runs Stage 1, Stage 2 and Stage 3 in order after a single confirmation.
The first failing stage ends the run. Progress is reported over the whole
sync: Stage 1 covers 0-33%, Stage 2 33-66% and Stage 3 66-100%.

Press Ctrl+C once to stop at the next stage or batch boundary, twice to abort.`,
	Args: cobra.NoArgs,
	RunE: runFull,
}

func init() {
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(fullCmd)
}

func runStage(cmd *cobra.Command, args []string) error {
	stage, err := domain.ParseStage(args[0])
	if err != nil {
		return err
	}
	return runWithProgress(cmd, stage)
}

func runFull(cmd *cobra.Command, _ []string) error {
	return runWithProgress(cmd, domain.StageFull)
}

// runWithProgress runs stage while rendering progress. The first interrupt
// requests a cooperative stop; the second cancels the context.
func runWithProgress(cmd *cobra.Command, stage domain.Stage) error {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.Sync == nil {
		return errors.New("sync service not configured")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	line := newProgressLine(cmd.ErrOrStderr())
	unsubscribe := svc.Sync.Subscribe(line.update)
	defer unsubscribe()

	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	type runOutcome struct {
		result *domain.RunResult
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		res, err := svc.Sync.RunStage(ctx, stage)
		done <- runOutcome{result: res, err: err}
	}()

	stopping := false
	for {
		select {
		case out := <-done:
			line.finish()
			return report(cmd, out.result, out.err)
		case <-interrupts:
			if stopping {
				line.note("Aborting.")
				cancel()
				continue
			}
			stopping = true
			if err := svc.Sync.RequestStop(ctx); err != nil {
				if !errors.Is(err, domain.ErrNoActiveSync) {
					logger.Warn("stop request failed: %v", err)
				}
				line.note("Interrupted; press Ctrl+C again to abort.")
				continue
			}
			line.note("Stopping after the current request; press Ctrl+C again to abort.")
		}
	}
}

// report prints the run's details. Failures are returned so the exit code
// reflects them; stalls and stops are operational outcomes.
func report(cmd *cobra.Command, res *domain.RunResult, runErr error) error {
	if res == nil {
		return runErr
	}

	switch res.Outcome {
	case domain.OutcomeDeclined:
		cmd.Println("Cancelled.")
		return nil
	case domain.OutcomeFailed:
		printRunDetails(cmd, res)
		if runErr == nil {
			runErr = errors.New(res.Message)
		}
		return runErr
	default:
		printRunDetails(cmd, res)
		return nil
	}
}

func printRunDetails(cmd *cobra.Command, res *domain.RunResult) {
	cmd.Printf("%s %s: %s\n", res.Stage.Title(), res.Outcome, res.Message)
	if len(res.Completed) > 0 && res.Stage == domain.StageFull {
		titles := make([]string, len(res.Completed))
		for i, s := range res.Completed {
			titles[i] = s.Title()
		}
		cmd.Printf("  Completed: %s\n", joinTitles(titles))
	}
	if r := res.Stage1; r != nil {
		cmd.Printf("  Stage 1: created %d, updated %d of %d procedures\n",
			r.ProceduresCreated, r.ProceduresUpdated, r.TotalProcedures)
	}
	if r := res.Stage2; r != nil {
		cmd.Printf("  Stage 2: %d procedures, %d cases in manifest\n", r.ProcedureCount, r.CaseCount)
	}
	if t := res.Stage3; t != nil {
		cmd.Printf("  Stage 3: processed %d of %d cases (%d created, %d updated, %d failed) in %d batches\n",
			t.Processed, t.Total, t.Created, t.Updated, t.Failed, t.Batches)
	}
	if d := res.Duration(); d > 0 {
		cmd.Printf("  Duration: %s\n", d.Round(time.Second))
	}
}

func joinTitles(titles []string) string {
	switch len(titles) {
	case 0:
		return ""
	case 1:
		return titles[0]
	}
	out := titles[0]
	for _, t := range titles[1 : len(titles)-1] {
		out += ", " + t
	}
	return fmt.Sprintf("%s and %s", out, titles[len(titles)-1])
}
