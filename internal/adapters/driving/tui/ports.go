// Package tui provides an interactive terminal dashboard for stagesync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Sync runs stages and reports the session.
	Sync driving.SyncOrchestrator

	// Files checks remote artifacts and reads detailed progress.
	Files driving.FileService

	// History lists finished runs. Optional.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Sync == nil {
		return ErrMissingSyncOrchestrator
	}
	if p.Files == nil {
		return ErrMissingFileService
	}
	return nil
}
