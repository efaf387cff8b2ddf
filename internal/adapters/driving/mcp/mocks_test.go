package mcp

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// mockSyncOrchestrator is a mock implementation of driving.SyncOrchestrator.
type mockSyncOrchestrator struct {
	mu      sync.Mutex
	session domain.SyncSession
	result  *domain.RunResult
	err     error
	stopErr error
	gate    Gate
	// ran records the stages started and whether the gate approved them.
	ran      []domain.Stage
	approved []bool
	release  chan struct{}
	stops    int
}

func (m *mockSyncOrchestrator) RunStage(ctx context.Context, stage domain.Stage) (*domain.RunResult, error) {
	ok, _ := m.gate.Confirm(ctx, domain.Prompt{Title: "run"})
	m.mu.Lock()
	m.ran = append(m.ran, stage)
	m.approved = append(m.approved, ok)
	release := m.release
	m.mu.Unlock()

	if release != nil {
		<-release
	}
	return m.result, m.err
}

func (m *mockSyncOrchestrator) RunFullSync(ctx context.Context) (*domain.RunResult, error) {
	return m.RunStage(ctx, domain.StageFull)
}

func (m *mockSyncOrchestrator) Stop(ctx context.Context) error {
	if ok, _ := m.gate.Confirm(ctx, domain.Prompt{Title: "stop"}); !ok {
		return domain.ErrDeclined
	}
	return m.RequestStop(ctx)
}

func (m *mockSyncOrchestrator) RequestStop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if m.stopErr != nil {
		return m.stopErr
	}
	m.session.CancelRequested = true
	m.session.Status = domain.StatusStopping
	return nil
}

func (m *mockSyncOrchestrator) Status() domain.SyncSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *mockSyncOrchestrator) Subscribe(_ domain.ProgressFunc) func() {
	return func() {}
}

func (m *mockSyncOrchestrator) setStatus(status domain.SessionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Status = status
}

func (m *mockSyncOrchestrator) runs() []domain.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Stage(nil), m.ran...)
}

// mockFileService is a mock implementation of driving.FileService.
type mockFileService struct {
	status  *domain.FileStatus
	preview *domain.ManifestPreview
	err     error
}

func (m *mockFileService) CheckFiles(_ context.Context) (*domain.FileStatus, domain.Eligibility, error) {
	if m.err != nil {
		return nil, domain.Eligibility{}, m.err
	}
	return m.status, m.status.Eligibility(), nil
}

func (m *mockFileService) Preview(_ context.Context) (*domain.ManifestPreview, error) {
	return m.preview, m.err
}

func (m *mockFileService) Progress(_ context.Context) (*domain.DetailedProgress, error) {
	return nil, m.err
}

func (m *mockFileService) DeleteArtifact(_ context.Context, _ domain.Artifact) (string, error) {
	return "", m.err
}

func (m *mockFileService) ClearStage3Status(_ context.Context) (string, error) {
	return "", m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	runs      []domain.RunRecord
	err       error
	lastLimit int
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.lastLimit = limit
	return m.runs, m.err
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.RunRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockHistoryService) Clear(_ context.Context) error {
	return m.err
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	s, err := NewServer(ports)
	require.NoError(t, err)
	return s
}
