package tui

import "errors"

// ErrMissingSyncOrchestrator is returned when the sync orchestrator is not provided.
var ErrMissingSyncOrchestrator = errors.New("tui: sync orchestrator is required")

// ErrMissingFileService is returned when the file service is not provided.
var ErrMissingFileService = errors.New("tui: file service is required")

// ErrMissingBridge is returned when no bridge connects the app to the services.
var ErrMissingBridge = errors.New("tui: bridge is required")
