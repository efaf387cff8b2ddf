package driven

import (
	"context"
	"encoding/json"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// RemoteJobClient issues a single timed request to the remote endpoint.
type RemoteJobClient interface {
	// Call performs one round trip for action. The request is aborted when
	// timeout elapses and a *domain.TimeoutError is returned. Non-2xx
	// responses yield *domain.HTTPError, network failures
	// *domain.TransportError, and an envelope without success=true
	// *domain.ApplicationError. On success the envelope's data is returned.
	Call(ctx context.Context, action string, payload map[string]string, timeout time.Duration) (json.RawMessage, error)
}

// SyncAPI is the typed set of remote actions consumed by the orchestrator.
type SyncAPI interface {
	// CheckFiles reports remote artifact existence and stage summaries.
	CheckFiles(ctx context.Context, timeout time.Duration) (*domain.FileStatus, error)

	// RunStage1 fetches and categorises source records.
	RunStage1(ctx context.Context, timeout time.Duration) (*domain.Stage1Result, error)

	// RunStage2 builds the manifest; may run long.
	RunStage2(ctx context.Context, timeout time.Duration) (*domain.Stage2Result, error)

	// RunStage3Batch processes the next bounded batch of stage 3 work.
	RunStage3Batch(ctx context.Context, timeout time.Duration) (*domain.BatchResult, error)

	// GetProgress returns the current remote progress.
	GetProgress(ctx context.Context, timeout time.Duration) (*domain.ProgressSnapshot, error)

	// GetDetailedProgress returns per-entity progress.
	GetDetailedProgress(ctx context.Context, timeout time.Duration) (*domain.DetailedProgress, error)

	// GetManifestPreview summarises the manifest.
	GetManifestPreview(ctx context.Context, timeout time.Duration) (*domain.ManifestPreview, error)

	// DeleteArtifact removes a persisted remote file.
	DeleteArtifact(ctx context.Context, name domain.Artifact, timeout time.Duration) (string, error)

	// ClearStage3Status resets the remote stage 3 continuation record.
	ClearStage3Status(ctx context.Context, timeout time.Duration) (string, error)

	// StopSync signals the remote side to stop. Best effort.
	StopSync(ctx context.Context, timeout time.Duration) error
}
