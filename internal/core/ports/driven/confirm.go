package driven

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// ConfirmationGate presents a confirm/cancel decision to the user.
type ConfirmationGate interface {
	// Confirm blocks until the user answers. It returns true only for an
	// explicit approval.
	Confirm(ctx context.Context, prompt domain.Prompt) (bool, error)
}
