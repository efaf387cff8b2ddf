package driving

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// SyncOrchestrator sequences the remote stages of a sync job.
type SyncOrchestrator interface {
	// RunStage asks for confirmation, then runs a single stage (or a full
	// sync when stage is domain.StageFull). A declined confirmation returns
	// a result with domain.OutcomeDeclined and no error.
	RunStage(ctx context.Context, stage domain.Stage) (*domain.RunResult, error)

	// RunFullSync asks for confirmation, then runs stages 1, 2 and 3.
	RunFullSync(ctx context.Context) (*domain.RunResult, error)

	// Stop asks for confirmation, then requests cooperative cancellation of
	// the active run. It returns domain.ErrDeclined when refused.
	Stop(ctx context.Context) error

	// RequestStop requests cancellation without confirmation. Used when the
	// user already expressed intent (e.g. an interrupt signal).
	RequestStop(ctx context.Context) error

	// Status returns a copy of the current session.
	Status() domain.SyncSession

	// Subscribe registers fn for progress events and returns a function
	// that removes it.
	Subscribe(fn domain.ProgressFunc) (unsubscribe func())
}
