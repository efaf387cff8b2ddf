package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/stagesync/internal/core/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `Reads and writes the settings file (~/.stagesync/config.toml by default).

Keys:
  remote.endpoint        URL every action is posted to
  remote.bearer_token    optional Authorization bearer token
  remote.tokens.sync     token for stage runs, progress and stop
  remote.tokens.files    token for file checks, preview, delete and clear
  remote.rate_limit      maximum requests per second (0 = unlimited)
  sync.status_timeout    timeout for status and file requests
  sync.stage_timeout     timeout for Stage 1 and Stage 2
  sync.batch_timeout     timeout for each Stage 3 batch
  sync.poll_interval     how often Stage 2 progress is polled
  sync.poll_timeout      timeout for each progress poll
  sync.poll_max_failures consecutive poll failures before polling stops
  sync.stall_threshold   identical Stage 3 readings before the run ends
  sync.batch_delay       pause between Stage 3 batches`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore a setting's default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func settingsFor(cmd *cobra.Command) (*Services, error) {
	svc, err := loadServices(cmd, Overrides{})
	if err != nil {
		return nil, err
	}
	if svc.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return svc, nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	svc, err := settingsFor(cmd)
	if err != nil {
		return err
	}

	for _, key := range svc.Settings.Keys() {
		cmd.Printf("%-24s %s\n", key, displayValue(svc, key))
	}

	if unknown := svc.Settings.UnknownKeys(); len(unknown) > 0 {
		cmd.Println()
		cmd.Printf("Ignored unknown keys in %s: %s\n", svc.Settings.Path(), strings.Join(unknown, ", "))
	}

	remote := svc.Settings.RemoteSettings()
	if err := remote.Validate(); err != nil {
		cmd.Println()
		cmd.Println("Warning: remote.endpoint is not set. Run 'stagesync config set remote.endpoint <url>'.")
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	svc, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	cmd.Println(displayValue(svc, args[0]))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	if err := svc.Settings.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", args[0], displayValue(svc, args[0]))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	svc, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	if err := svc.Settings.Unset(args[0]); err != nil {
		return err
	}
	cmd.Printf("%s reset to default\n", args[0])
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	svc, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	cmd.Println(svc.Settings.Path())
	return nil
}

// displayValue formats a stored value, masking secrets.
func displayValue(svc *Services, key string) string {
	v, ok := svc.Settings.Get(key)
	if !ok {
		return "(default)"
	}
	s := fmt.Sprint(v)
	if services.IsSecret(key) {
		return maskSecret(s)
	}
	return s
}

// maskSecret masks a credential for display, showing only the last 4 characters.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
