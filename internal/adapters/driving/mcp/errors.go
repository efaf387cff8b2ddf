// Package mcp exposes stagesync over the Model Context Protocol so an AI
// assistant can inspect remote files, start stages and follow progress.
package mcp

import "errors"

var (
	// ErrMissingSyncService is returned when the orchestrator is not provided.
	ErrMissingSyncService = errors.New("mcp: sync service is required")

	// ErrMissingFileService is returned when the file service is not provided.
	ErrMissingFileService = errors.New("mcp: file service is required")

	// ErrNotConfirmed is returned by tools that change remote state when
	// called without confirmed=true.
	ErrNotConfirmed = errors.New("this action changes remote data; call again with confirmed=true after the user agrees")
)
