package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

var (
	statusJSON bool
	filesJSON  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show remote files and which stages can run",
	Long: `Checks the remote sync files and reports, for each stage, whether it can
be started now. The next suggested stage is marked.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect and manage remote sync files",
	Args:  cobra.NoArgs,
	RunE:  runFilesList,
}

var filesDeleteCmd = &cobra.Command{
	Use:       "delete <syncData|manifest>",
	Short:     "Delete a remote sync file",
	Long:      `Deletes the stage 1 sync data file or the stage 2 manifest after confirmation.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(domain.ArtifactSyncData), string(domain.ArtifactManifest)},
	RunE:      runFilesDelete,
}

var filesClearCmd = &cobra.Command{
	Use:   "clear-stage3",
	Short: "Reset the remote stage 3 progress record",
	Long:  `Clears the resumable stage 3 record so the next Stage 3 run starts over.`,
	Args:  cobra.NoArgs,
	RunE:  runFilesClear,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "output as JSON")
	filesCmd.AddCommand(filesDeleteCmd)
	filesCmd.AddCommand(filesClearCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(filesCmd)
}

// statusView is the JSON form of the status command.
type statusView struct {
	Session struct {
		ID         string  `json:"id,omitempty"`
		Stage      string  `json:"stage"`
		Status     string  `json:"status"`
		Percentage float64 `json:"percentage"`
		Message    string  `json:"message,omitempty"`
	} `json:"session"`
	Files   *domain.FileStatus        `json:"files"`
	Stages  []domain.StageEligibility `json:"stages"`
	Next    string                    `json:"next"`
	LastRun *domain.RunRecord         `json:"last_run,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.Files == nil {
		return errors.New("file service not configured")
	}

	status, elig, err := svc.Files.CheckFiles(cmd.Context())
	if err != nil {
		return fmt.Errorf("checking files: %w", err)
	}

	var last *domain.RunRecord
	if svc.History != nil {
		if runs, err := svc.History.Recent(cmd.Context(), 1); err == nil && len(runs) > 0 {
			last = &runs[0]
		}
	}

	if statusJSON {
		var view statusView
		if svc.Sync != nil {
			s := svc.Sync.Status()
			view.Session.ID = s.ID
			view.Session.Stage = s.Stage.String()
			view.Session.Status = s.Status.String()
			view.Session.Percentage = s.Percentage
			view.Session.Message = s.Message
		}
		view.Files = status
		view.Stages = elig.Stages
		view.Next = elig.Next.String()
		view.LastRun = last
		return printJSON(cmd, view)
	}

	printFiles(cmd.OutOrStdout(), status)
	cmd.Println()
	printEligibility(cmd.OutOrStdout(), elig)
	if last != nil {
		cmd.Println()
		cmd.Printf("Last run: %s %s at %s (%s)\n", last.Stage.Title(), last.Outcome,
			last.StartedAt.Local().Format(time.DateTime), last.Message)
	}
	return nil
}

func runFilesList(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.Files == nil {
		return errors.New("file service not configured")
	}

	status, _, err := svc.Files.CheckFiles(cmd.Context())
	if err != nil {
		return fmt.Errorf("checking files: %w", err)
	}
	if filesJSON {
		return printJSON(cmd, status)
	}
	printFiles(cmd.OutOrStdout(), status)
	return nil
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	artifact, err := domain.ParseArtifact(args[0])
	if err != nil {
		return err
	}
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.Files == nil {
		return errors.New("file service not configured")
	}

	msg, err := svc.Files.DeleteArtifact(cmd.Context(), artifact)
	if errors.Is(err, domain.ErrDeclined) {
		cmd.Println("Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	cmd.Println(msg)
	return nil
}

func runFilesClear(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.Files == nil {
		return errors.New("file service not configured")
	}

	msg, err := svc.Files.ClearStage3Status(cmd.Context())
	if errors.Is(err, domain.ErrDeclined) {
		cmd.Println("Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	cmd.Println(msg)
	return nil
}

func printFiles(out io.Writer, status *domain.FileStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tEXISTS\tDATE")
	fmt.Fprintf(w, "sync data\t%s\t%s\n", yesNo(status.SyncData.Exists), formatDate(status.SyncData.Date))
	fmt.Fprintf(w, "manifest\t%s\t%s\n", yesNo(status.Manifest.Exists), formatDate(status.Manifest.Date))
	w.Flush()

	if info := status.Stage1Info; info != nil {
		fmt.Fprintf(out, "\nSync data: %d procedures, %d cases\n", info.TotalProcedures, info.TotalCases)
	}
	if s3 := status.Stage3Status; s3 != nil && (s3.InProgress || s3.ProcessedCases > 0) {
		state := "finished"
		if s3.InProgress {
			state = "in progress"
		}
		fmt.Fprintf(out, "Stage 3: %s, %d of %d cases processed", state, s3.ProcessedCases, s3.TotalCases)
		if !s3.LastRun.IsZero() {
			fmt.Fprintf(out, " (last run %s)", formatDate(s3.LastRun))
		}
		fmt.Fprintln(out)
	}
}

func printEligibility(out io.Writer, elig domain.Eligibility) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tREADY\tNOTE")
	for _, st := range elig.Stages {
		note := st.Reason
		if st.Stage == elig.Next && st.Enabled {
			note = "next"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Stage.Title(), yesNo(st.Enabled), note)
	}
	w.Flush()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
