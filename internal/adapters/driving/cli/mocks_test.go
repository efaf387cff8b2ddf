package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
)

type mockSyncOrchestrator struct {
	result  *domain.RunResult
	err     error
	session domain.SyncSession
	ran     []domain.Stage
	stopped bool
}

var _ driving.SyncOrchestrator = (*mockSyncOrchestrator)(nil)

func (m *mockSyncOrchestrator) RunStage(_ context.Context, stage domain.Stage) (*domain.RunResult, error) {
	m.ran = append(m.ran, stage)
	return m.result, m.err
}

func (m *mockSyncOrchestrator) RunFullSync(ctx context.Context) (*domain.RunResult, error) {
	return m.RunStage(ctx, domain.StageFull)
}

func (m *mockSyncOrchestrator) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func (m *mockSyncOrchestrator) RequestStop(context.Context) error {
	m.stopped = true
	return nil
}

func (m *mockSyncOrchestrator) Status() domain.SyncSession {
	return m.session
}

func (m *mockSyncOrchestrator) Subscribe(domain.ProgressFunc) func() {
	return func() {}
}

type mockFileService struct {
	status    *domain.FileStatus
	preview   *domain.ManifestPreview
	progress  *domain.DetailedProgress
	deleteErr error
	deleted   []domain.Artifact
	cleared   bool
}

var _ driving.FileService = (*mockFileService)(nil)

func (m *mockFileService) CheckFiles(context.Context) (*domain.FileStatus, domain.Eligibility, error) {
	return m.status, m.status.Eligibility(), nil
}

func (m *mockFileService) Preview(context.Context) (*domain.ManifestPreview, error) {
	return m.preview, nil
}

func (m *mockFileService) Progress(context.Context) (*domain.DetailedProgress, error) {
	return m.progress, nil
}

func (m *mockFileService) DeleteArtifact(_ context.Context, a domain.Artifact) (string, error) {
	if m.deleteErr != nil {
		return "", m.deleteErr
	}
	m.deleted = append(m.deleted, a)
	return "Deleted " + string(a), nil
}

func (m *mockFileService) ClearStage3Status(context.Context) (string, error) {
	if m.deleteErr != nil {
		return "", m.deleteErr
	}
	m.cleared = true
	return "Stage 3 status cleared", nil
}

type mockHistoryService struct {
	runs    []domain.RunRecord
	limit   int
	cleared bool
}

var _ driving.HistoryService = (*mockHistoryService)(nil)

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.limit = limit
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockHistoryService) Get(context.Context, string) (*domain.RunRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *mockHistoryService) Clear(context.Context) error {
	m.cleared = true
	m.runs = nil
	return nil
}

// resetFlags restores every flag global to its default.
func resetFlags() {
	opts = Options{}
	statusJSON = false
	filesJSON = false
	previewJSON = false
	previewLimit = 20
	progressJSON = false
	historyLimit = 10
	historyJSON = false
	historyClear = false
	versionShort = false
}

// execute runs the root command against svc and returns its output.
func execute(t *testing.T, svc *Services, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	oldServices, oldBuilder := current, builder
	current, builder = svc, nil
	t.Cleanup(func() {
		current, builder = oldServices, oldBuilder
		rootCmd.SetArgs(nil)
		resetFlags()
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

// mustExecute is execute that fails the test on error.
func mustExecute(t *testing.T, svc *Services, args ...string) string {
	t.Helper()
	out, err := execute(t, svc, args...)
	require.NoError(t, err)
	return out
}
