package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	previewJSON  bool
	previewLimit int
	progressJSON bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Summarise the stage 2 manifest",
	Args:  cobra.NoArgs,
	RunE:  runPreview,
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the remote job's detailed progress",
	Long: `Reads the per-entity progress the remote job reports: current procedure,
procedure and case counters, and the most recently processed cases.`,
	Args: cobra.NoArgs,
	RunE: runProgress,
}

func init() {
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "output as JSON")
	previewCmd.Flags().IntVarP(&previewLimit, "limit", "n", 20, "maximum number of procedures to list")
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(progressCmd)
}

func runPreview(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.Files == nil {
		return errors.New("file service not configured")
	}

	preview, err := svc.Files.Preview(cmd.Context())
	if err != nil {
		return fmt.Errorf("manifest preview: %w", err)
	}
	if previewJSON {
		return printJSON(cmd, preview)
	}
	if !preview.Exists {
		cmd.Println("No manifest yet. Run Stage 2 to build it.")
		return nil
	}

	cmd.Printf("Manifest built %s: %d procedures, %d cases\n\n",
		formatDate(preview.Date), preview.TotalProcedures, preview.TotalCases)

	names := make([]string, 0, len(preview.Preview))
	for name := range preview.Preview {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := preview.Preview[names[i]], preview.Preview[names[j]]
		if a.CaseCount != b.CaseCount {
			return a.CaseCount > b.CaseCount
		}
		return names[i] < names[j]
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROCEDURE\tCASES\tSAMPLE")
	for i, name := range names {
		if previewLimit > 0 && i >= previewLimit {
			break
		}
		p := preview.Preview[name]
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, p.CaseCount, strings.Join(p.SampleIDs, ", "))
	}
	w.Flush()

	if previewLimit > 0 && len(names) > previewLimit {
		cmd.Printf("... and %d more\n", len(names)-previewLimit)
	}
	return nil
}

func runProgress(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return err
	}
	if svc.Files == nil {
		return errors.New("file service not configured")
	}

	p, err := svc.Files.Progress(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading progress: %w", err)
	}
	if progressJSON {
		return printJSON(cmd, p)
	}

	cmd.Printf("Stage %d: %.1f%% overall\n", p.Stage, p.OverallPercentage)
	if p.CurrentStep != "" {
		cmd.Printf("  Step: %s\n", p.CurrentStep)
	}
	if p.CurrentProcedure != "" {
		cmd.Printf("  Procedure: %s\n", p.CurrentProcedure)
	}
	cmd.Printf("  Procedures: %d of %d (%.1f%%)\n",
		p.ProcedureProgress.Current, p.ProcedureProgress.Total, p.ProcedureProgress.Percentage)
	cmd.Printf("  Cases: %d of %d (%.1f%%)\n",
		p.CaseProgress.Current, p.CaseProgress.Total, p.CaseProgress.Percentage)

	if len(p.RecentCases) > 0 {
		cmd.Println("  Recent cases:")
		for _, c := range p.RecentCases {
			line := "    " + c.ID
			if c.Title != "" {
				line += " " + c.Title
			}
			if c.Status != "" {
				line += " [" + c.Status + "]"
			}
			cmd.Println(line)
		}
	}
	return nil
}
