package mcp

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/logger"
)

type confirmedKey struct{}

// withConfirmed records the tool call's confirmed argument on ctx.
func withConfirmed(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmedKey{}, confirmed)
}

// Gate approves a prompt only when the tool call that triggered it carried
// confirmed=true. There is no human at the MCP transport, so the assistant
// relays the user's answer through that argument.
type Gate struct{}

var _ driven.ConfirmationGate = Gate{}

// Confirm implements driven.ConfirmationGate.
func (Gate) Confirm(ctx context.Context, prompt domain.Prompt) (bool, error) {
	confirmed, _ := ctx.Value(confirmedKey{}).(bool)
	if !confirmed {
		logger.Debug("mcp: %q not confirmed", prompt.Title)
	}
	return confirmed, nil
}
