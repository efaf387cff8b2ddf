package driving

import (
	"context"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// FileService queries and manages the remote artifacts produced by stages.
type FileService interface {
	// CheckFiles returns artifact status and the derived stage eligibility.
	CheckFiles(ctx context.Context) (*domain.FileStatus, domain.Eligibility, error)

	// Preview returns the manifest preview.
	Preview(ctx context.Context) (*domain.ManifestPreview, error)

	// Progress returns the remote job's detailed progress.
	Progress(ctx context.Context) (*domain.DetailedProgress, error)

	// DeleteArtifact asks for confirmation and deletes a remote file.
	// Returns domain.ErrDeclined when refused.
	DeleteArtifact(ctx context.Context, name domain.Artifact) (string, error)

	// ClearStage3Status asks for confirmation and resets stage 3.
	// Returns domain.ErrDeclined when refused.
	ClearStage3Status(ctx context.Context) (string, error)
}
