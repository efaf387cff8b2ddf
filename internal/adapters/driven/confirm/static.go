package confirm

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/logger"
)

var _ driven.ConfirmationGate = Static(false)

// Static answers every prompt the same way.
type Static bool

// Confirm implements driven.ConfirmationGate.
func (s Static) Confirm(ctx context.Context, prompt domain.Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	logger.Debug("auto-answering %q: %t", prompt.Title, bool(s))
	return bool(s), nil
}
