package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
)

type mockSyncOrchestrator struct {
	mu          sync.Mutex
	session     domain.SyncSession
	result      *domain.RunResult
	err         error
	stopErr     error
	forcedErr   error
	ran         []domain.Stage
	stops       int
	forcedStops int
}

var _ driving.SyncOrchestrator = (*mockSyncOrchestrator)(nil)

func (m *mockSyncOrchestrator) RunStage(_ context.Context, stage domain.Stage) (*domain.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ran = append(m.ran, stage)
	return m.result, m.err
}

func (m *mockSyncOrchestrator) RunFullSync(ctx context.Context) (*domain.RunResult, error) {
	return m.RunStage(ctx, domain.StageFull)
}

func (m *mockSyncOrchestrator) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return m.stopErr
}

func (m *mockSyncOrchestrator) RequestStop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forcedStops++
	return m.forcedErr
}

func (m *mockSyncOrchestrator) Status() domain.SyncSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *mockSyncOrchestrator) Subscribe(domain.ProgressFunc) func() {
	return func() {}
}

func (m *mockSyncOrchestrator) setSession(s domain.SyncSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
}

type mockFileService struct {
	status   *domain.FileStatus
	err      error
	progress *domain.DetailedProgress
	checks   int
}

var _ driving.FileService = (*mockFileService)(nil)

func (m *mockFileService) CheckFiles(context.Context) (*domain.FileStatus, domain.Eligibility, error) {
	m.checks++
	if m.err != nil {
		return nil, domain.Eligibility{}, m.err
	}
	return m.status, m.status.Eligibility(), nil
}

func (m *mockFileService) Preview(context.Context) (*domain.ManifestPreview, error) {
	return &domain.ManifestPreview{}, nil
}

func (m *mockFileService) Progress(context.Context) (*domain.DetailedProgress, error) {
	return m.progress, m.err
}

func (m *mockFileService) DeleteArtifact(context.Context, domain.Artifact) (string, error) {
	return "", nil
}

func (m *mockFileService) ClearStage3Status(context.Context) (string, error) {
	return "", nil
}

type mockHistoryService struct {
	runs []domain.RunRecord
}

var _ driving.HistoryService = (*mockHistoryService)(nil)

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.RunRecord, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.RunRecord, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockHistoryService) Clear(context.Context) error {
	m.runs = nil
	return nil
}
