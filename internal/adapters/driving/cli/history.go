package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the recorded history")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.History == nil {
		return errors.New("history service not configured")
	}

	if historyClear {
		if err := svc.History.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		cmd.Println("History cleared.")
		return nil
	}

	runs, err := svc.History.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if historyJSON {
		return printJSON(cmd, runs)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTAGE\tOUTCOME\tPROGRESS\tDURATION\tMESSAGE")
	for _, r := range runs {
		duration := "-"
		if !r.EndedAt.IsZero() {
			duration = r.EndedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
			formatDate(r.StartedAt), r.Stage.Title(), r.Outcome, r.Percentage, duration, r.Message)
	}
	w.Flush()
	return nil
}
