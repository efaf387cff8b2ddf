// Package cli implements the stagesync command line with cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Options are the global flags.
type Options struct {
	ConfigDir string
	Endpoint  string
	LogFile   string
	Broadcast string
	Verbose   bool
	Yes       bool
}

// Overrides replace the default confirmation gate and notification sink
// for front ends that present their own (TUI, MCP).
type Overrides struct {
	Gate driven.ConfirmationGate
	Sink driven.NotificationSink
}

// Services are the driving ports the commands use.
type Services struct {
	Sync     driving.SyncOrchestrator
	Files    driving.FileService
	History  driving.HistoryService
	Settings driving.SettingsService

	// Close releases resources held by the services. Optional.
	Close func() error
}

// Builder wires services for the given flags.
type Builder func(ctx context.Context, opts Options, ov Overrides) (*Services, error)

var (
	opts     Options
	builder  Builder
	current *Services
	logFile  io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "stagesync",
	Short: "Run and monitor a staged remote sync job",
	Long: `stagesync drives a three-stage sync job hosted behind a remote endpoint.

Stage 1 fetches and categorises source records, Stage 2 builds the
cross-reference manifest and Stage 3 creates target records in resumable
batches. Every run is confirmed first and reports one outcome.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: teardown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print debug logs")
	flags.BoolVarP(&opts.Yes, "yes", "y", false, "answer yes to every confirmation")
	flags.StringVar(&opts.ConfigDir, "config-dir", "", "configuration directory (default ~/.stagesync)")
	flags.StringVar(&opts.Endpoint, "endpoint", "", "remote endpoint URL, overrides remote.endpoint")
	flags.StringVar(&opts.LogFile, "log-file", "", "write logs to a rotating file instead of stderr")
	flags.StringVar(&opts.Broadcast, "broadcast", "", "serve progress over websocket on this address (e.g. :8765)")
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetBuilder sets how services are wired once flags are parsed.
func SetBuilder(b Builder) {
	builder = b
}

// SetServices injects ready-made services, bypassing the builder.
func SetServices(s *Services) {
	current = s
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setupLogging(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)
	if opts.LogFile != "" && logFile == nil {
		logFile = logger.ToFile(opts.LogFile, logger.DefaultFileOptions())
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	var errs []error
	if current != nil && current.Close != nil && builder != nil {
		errs = append(errs, current.Close())
		current = nil
	}
	if logFile != nil {
		logger.SetOutput(os.Stderr)
		logger.SetTimestamps(false)
		errs = append(errs, logFile.Close())
		logFile = nil
	}
	return errors.Join(errs...)
}

// loadServices returns injected services or builds them from the flags.
func loadServices(cmd *cobra.Command, ov Overrides) (*Services, error) {
	if current != nil {
		return current, nil
	}
	if builder == nil {
		return nil, errors.New("services not configured")
	}
	s, err := builder(cmd.Context(), opts, ov)
	if err != nil {
		return nil, fmt.Errorf("initialising: %w", err)
	}
	current = s
	return s, nil
}
