package driven

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// NotificationSink reports outcomes to the user.
// Implementations must not block for long and never affect control flow.
type NotificationSink interface {
	Notify(ctx context.Context, n domain.Notification)
}
