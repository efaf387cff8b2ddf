package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// Ensure FileService implements the interface.
var _ driving.FileService = (*FileService)(nil)

// SessionReader exposes the current sync session.
type SessionReader interface {
	Status() domain.SyncSession
}

// FileService queries and manages the remote artifacts.
type FileService struct {
	api      driven.SyncAPI
	gate     driven.ConfirmationGate
	sink     driven.NotificationSink
	sessions SessionReader
	settings SettingsProvider
}

// NewFileService creates a new file service.
// sessions may be nil, in which case destructive operations are never
// blocked by a running sync.
func NewFileService(
	api driven.SyncAPI,
	gate driven.ConfirmationGate,
	sink driven.NotificationSink,
	sessions SessionReader,
	settings SettingsProvider,
) *FileService {
	if settings == nil {
		settings = StaticSettings(domain.DefaultSyncSettings())
	}
	return &FileService{
		api:      api,
		gate:     gate,
		sink:     sink,
		sessions: sessions,
		settings: settings,
	}
}

// CheckFiles fetches artifact status and derives stage eligibility.
func (s *FileService) CheckFiles(ctx context.Context) (*domain.FileStatus, domain.Eligibility, error) {
	status, err := s.api.CheckFiles(ctx, s.timeout())
	if err != nil {
		return nil, domain.Eligibility{}, fmt.Errorf("check files: %w", err)
	}
	if status == nil {
		status = &domain.FileStatus{}
	}
	return status, status.Eligibility(), nil
}

// Preview returns the manifest preview.
func (s *FileService) Preview(ctx context.Context) (*domain.ManifestPreview, error) {
	preview, err := s.api.GetManifestPreview(ctx, s.timeout())
	if err != nil {
		return nil, fmt.Errorf("manifest preview: %w", err)
	}
	return preview, nil
}

// Progress returns the remote job's detailed progress.
func (s *FileService) Progress(ctx context.Context) (*domain.DetailedProgress, error) {
	progress, err := s.api.GetDetailedProgress(ctx, s.timeout())
	if err != nil {
		return nil, fmt.Errorf("detailed progress: %w", err)
	}
	return progress, nil
}

// DeleteArtifact asks for confirmation and deletes a remote file.
func (s *FileService) DeleteArtifact(ctx context.Context, name domain.Artifact) (string, error) {
	if _, err := domain.ParseArtifact(string(name)); err != nil {
		return "", err
	}
	if err := s.refuseWhileRunning(); err != nil {
		return "", err
	}

	prompt := domain.Prompt{
		Title:       fmt.Sprintf("Delete the %s file?", name),
		Message:     "The file is removed on the server and the stages that produced it must run again.",
		Affirmative: "Delete",
		Negative:    "Cancel",
		Destructive: true,
	}
	if err := s.confirm(ctx, prompt); err != nil {
		return "", err
	}

	msg, err := s.api.DeleteArtifact(ctx, name, s.timeout())
	if err != nil {
		s.notifyFailure(ctx, "Delete failed", err)
		return "", fmt.Errorf("delete %s: %w", name, err)
	}
	if msg == "" {
		msg = fmt.Sprintf("Deleted %s file", name)
	}
	logger.Info("%s", msg)
	s.sink.Notify(ctx, domain.Notification{Kind: domain.NotifySuccess, Title: "File deleted", Message: msg})
	return msg, nil
}

// ClearStage3Status asks for confirmation and resets stage 3 continuation.
func (s *FileService) ClearStage3Status(ctx context.Context) (string, error) {
	if err := s.refuseWhileRunning(); err != nil {
		return "", err
	}

	prompt := domain.Prompt{
		Title:       "Clear Stage 3 status?",
		Message:     "The next Stage 3 run starts from the first case instead of resuming.",
		Affirmative: "Clear",
		Negative:    "Cancel",
		Destructive: true,
	}
	if err := s.confirm(ctx, prompt); err != nil {
		return "", err
	}

	msg, err := s.api.ClearStage3Status(ctx, s.timeout())
	if err != nil {
		s.notifyFailure(ctx, "Clear failed", err)
		return "", fmt.Errorf("clear stage 3 status: %w", err)
	}
	if msg == "" {
		msg = "Stage 3 status cleared"
	}
	logger.Info("%s", msg)
	s.sink.Notify(ctx, domain.Notification{Kind: domain.NotifySuccess, Title: "Stage 3 reset", Message: msg})
	return msg, nil
}

func (s *FileService) confirm(ctx context.Context, prompt domain.Prompt) error {
	approved, err := s.gate.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !approved {
		return domain.ErrDeclined
	}
	return nil
}

func (s *FileService) refuseWhileRunning() error {
	if s.sessions == nil {
		return nil
	}
	if current := s.sessions.Status(); current.Status.Active() {
		return fmt.Errorf("%w: %s is %s", domain.ErrSyncInProgress, current.Stage.Title(), current.Status)
	}
	return nil
}

func (s *FileService) notifyFailure(ctx context.Context, title string, err error) {
	s.sink.Notify(ctx, domain.Notification{
		Kind:    domain.NotifyError,
		Title:   title,
		Message: domain.UserMessage(err),
	})
}

func (s *FileService) timeout() time.Duration {
	return s.settings.SyncSettings().StatusTimeout
}
