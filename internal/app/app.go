// Package app wires the driven adapters into the core services for the
// command line.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/stagesync/internal/adapters/driven/broadcast"
	"github.com/custodia-labs/stagesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/stagesync/internal/adapters/driven/confirm"
	"github.com/custodia-labs/stagesync/internal/adapters/driven/notify"
	"github.com/custodia-labs/stagesync/internal/adapters/driven/remote"
	"github.com/custodia-labs/stagesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/stagesync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/stagesync/internal/adapters/driving/cli"
	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/core/services"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// Ensure Build satisfies the CLI's builder signature.
var _ cli.Builder = Build

// Build creates the services for one command invocation.
//
// A missing or invalid endpoint does not fail the build; remote calls
// report it instead, so local commands (config, history) keep working.
// A history database that cannot be opened falls back to an in-memory
// store that lasts for the process.
func Build(_ context.Context, opts cli.Options, ov cli.Overrides) (*cli.Services, error) {
	cfg, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settings := services.NewSettingsService(cfg)

	api := remote.NewAPI(newClient(settings.RemoteSettings(), opts.Endpoint))

	var (
		store *sqlite.Store
		runs  driven.RunStore
	)
	store, err = sqlite.NewStore(dataDir(opts.ConfigDir))
	if err != nil {
		logger.Warn("run history will not be saved: %v", err)
		store = nil
		runs = memory.NewRunStore()
	} else {
		runs = store.RunStore()
	}

	gate := ov.Gate
	if gate == nil {
		gate = defaultGate(opts.Yes)
	}

	sinks := notify.Multi{}
	if ov.Sink != nil {
		sinks = append(sinks, ov.Sink)
	} else {
		sinks = append(sinks, notify.NewConsole(os.Stderr))
	}
	if opts.LogFile != "" {
		sinks = append(sinks, notify.Log{})
	}

	var hub *broadcast.Hub
	if opts.Broadcast != "" {
		hub = broadcast.NewHub()
		if err := hub.ListenAndServe(opts.Broadcast); err != nil {
			_ = hub.Close()
			if store != nil {
				_ = store.Close()
			}
			return nil, fmt.Errorf("starting broadcast server: %w", err)
		}
		sinks = append(sinks, hub)
	}

	orch := services.NewStageOrchestrator(api, gate, sinks, runs, settings)
	if hub != nil {
		orch.Subscribe(hub.Publish)
	}

	watcher, err := file.NewWatcher(cfg, func() {
		logger.Info("configuration reloaded from %s", cfg.Path())
	})
	if err == nil {
		if err := watcher.Start(); err != nil {
			logger.Debug("config watcher not started: %v", err)
			_ = watcher.Stop()
			watcher = nil
		}
	} else {
		logger.Debug("config watcher unavailable: %v", err)
		watcher = nil
	}

	return &cli.Services{
		Sync:     orch,
		Files:    services.NewFileService(api, gate, sinks, orch, settings),
		History:  services.NewHistoryService(runs),
		Settings: settings,
		Close: func() error {
			orch.Wait()
			var errs []error
			if watcher != nil {
				errs = append(errs, watcher.Stop())
			}
			if hub != nil {
				errs = append(errs, hub.Close())
			}
			if store != nil {
				errs = append(errs, store.Close())
			}
			return errors.Join(errs...)
		},
	}, nil
}

// newClient builds the remote client, applying the endpoint override.
func newClient(rs domain.RemoteSettings, endpoint string) driven.RemoteJobClient {
	if endpoint != "" {
		rs.Endpoint = endpoint
	}
	c, err := remote.NewClient(remote.ConfigFrom(rs))
	if err != nil {
		logger.Debug("remote client unavailable: %v", err)
		return unconfiguredClient{err: err}
	}
	return c
}

// unconfiguredClient fails every call with the reason no client exists.
type unconfiguredClient struct {
	err error
}

func (c unconfiguredClient) Call(context.Context, string, map[string]string, time.Duration) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w. Run 'stagesync config set remote.endpoint <url>'", c.err)
}

// defaultGate asks on the terminal unless every prompt is pre-approved.
func defaultGate(yes bool) driven.ConfirmationGate {
	if yes {
		return confirm.Static(true)
	}
	return confirm.NewTerminal(os.Stdin, os.Stderr)
}

// dataDir places the history database under configDir when one is given.
func dataDir(configDir string) string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "data")
}
