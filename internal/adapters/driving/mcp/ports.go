package mcp

import (
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Sync runs stages and reports the session.
	Sync driving.SyncOrchestrator

	// Files checks and previews remote artifacts.
	Files driving.FileService

	// History lists finished runs. Optional.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	if p.Files == nil {
		return ErrMissingFileService
	}
	return nil
}
