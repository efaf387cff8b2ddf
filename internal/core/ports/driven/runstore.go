package driven

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// RunStore persists the history of finished runs.
type RunStore interface {
	// Record stores a finished run.
	Record(ctx context.Context, rec domain.RunRecord) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)

	// List returns the most recent runs, newest first.
	// A limit of zero or less returns all runs.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Clear removes all recorded runs.
	Clear(ctx context.Context) error
}
