package driving

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// HistoryService exposes the record of finished runs.
type HistoryService interface {
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Get returns one run by session id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)

	// Clear removes all recorded runs.
	Clear(ctx context.Context) error
}
