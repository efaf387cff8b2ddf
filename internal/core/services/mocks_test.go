package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
)

var _ driven.SyncAPI = (*mockSyncAPI)(nil)

// mockSyncAPI is a scriptable driven.SyncAPI.
type mockSyncAPI struct {
	mu sync.Mutex

	files    *domain.FileStatus
	filesErr error

	stage1    *domain.Stage1Result
	stage1Err error
	// stage1Hook runs inside RunStage1, before it returns.
	stage1Hook func()

	stage2    *domain.Stage2Result
	stage2Err error
	// stage2Release, when set, blocks RunStage2 until closed.
	stage2Release chan struct{}

	batches    []domain.BatchResult
	batchErrAt int
	batchErr   error
	// batchHook runs inside each batch call with its 1-based index.
	batchHook func(n int)

	progress    []domain.ProgressSnapshot
	progressErr error

	detailed *domain.DetailedProgress
	preview  *domain.ManifestPreview

	deleteMsg   string
	deleteErr   error
	clearMsg    string
	stopErr     error
	// stopRelease, when set, blocks StopSync until closed.
	stopRelease chan struct{}

	calls       []string
	batchCalls  int
	pollCalls   int
	timeouts    map[string]time.Duration
	deletedName domain.Artifact
}

func newMockSyncAPI() *mockSyncAPI {
	return &mockSyncAPI{timeouts: make(map[string]time.Duration)}
}

func (m *mockSyncAPI) record(action string, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, action)
	m.timeouts[action] = timeout
}

func (m *mockSyncAPI) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockSyncAPI) count(action string) int {
	n := 0
	for _, c := range m.callLog() {
		if c == action {
			n++
		}
	}
	return n
}

func (m *mockSyncAPI) CheckFiles(_ context.Context, timeout time.Duration) (*domain.FileStatus, error) {
	m.record("check_files", timeout)
	return m.files, m.filesErr
}

func (m *mockSyncAPI) RunStage1(_ context.Context, timeout time.Duration) (*domain.Stage1Result, error) {
	m.record("stage1", timeout)
	if m.stage1Hook != nil {
		m.stage1Hook()
	}
	if m.stage1Err != nil {
		return nil, m.stage1Err
	}
	if m.stage1 == nil {
		return &domain.Stage1Result{}, nil
	}
	return m.stage1, nil
}

func (m *mockSyncAPI) RunStage2(ctx context.Context, timeout time.Duration) (*domain.Stage2Result, error) {
	m.record("stage2", timeout)
	if m.stage2Release != nil {
		select {
		case <-m.stage2Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.stage2Err != nil {
		return nil, m.stage2Err
	}
	if m.stage2 == nil {
		return &domain.Stage2Result{FileExists: true}, nil
	}
	return m.stage2, nil
}

func (m *mockSyncAPI) RunStage3Batch(_ context.Context, timeout time.Duration) (*domain.BatchResult, error) {
	m.record("stage3_batch", timeout)
	m.mu.Lock()
	m.batchCalls++
	n := m.batchCalls
	m.mu.Unlock()

	if m.batchHook != nil {
		m.batchHook(n)
	}
	if m.batchErr != nil && n == m.batchErrAt {
		return nil, m.batchErr
	}
	if len(m.batches) == 0 {
		return &domain.BatchResult{}, nil
	}
	idx := n - 1
	if idx >= len(m.batches) {
		idx = len(m.batches) - 1
	}
	res := m.batches[idx]
	return &res, nil
}

func (m *mockSyncAPI) GetProgress(_ context.Context, timeout time.Duration) (*domain.ProgressSnapshot, error) {
	m.mu.Lock()
	m.pollCalls++
	n := m.pollCalls
	m.timeouts["progress"] = timeout
	m.mu.Unlock()

	if m.progressErr != nil {
		return nil, m.progressErr
	}
	if len(m.progress) == 0 {
		return &domain.ProgressSnapshot{}, nil
	}
	idx := n - 1
	if idx >= len(m.progress) {
		idx = len(m.progress) - 1
	}
	snap := m.progress[idx]
	return &snap, nil
}

func (m *mockSyncAPI) GetDetailedProgress(_ context.Context, timeout time.Duration) (*domain.DetailedProgress, error) {
	m.record("detailed_progress", timeout)
	return m.detailed, nil
}

func (m *mockSyncAPI) GetManifestPreview(_ context.Context, timeout time.Duration) (*domain.ManifestPreview, error) {
	m.record("manifest_preview", timeout)
	return m.preview, nil
}

func (m *mockSyncAPI) DeleteArtifact(_ context.Context, name domain.Artifact, timeout time.Duration) (string, error) {
	m.record("delete_file", timeout)
	m.mu.Lock()
	m.deletedName = name
	m.mu.Unlock()
	return m.deleteMsg, m.deleteErr
}

func (m *mockSyncAPI) ClearStage3Status(_ context.Context, timeout time.Duration) (string, error) {
	m.record("clear_stage3", timeout)
	return m.clearMsg, nil
}

func (m *mockSyncAPI) StopSync(ctx context.Context, timeout time.Duration) error {
	m.record("stop_sync", timeout)
	if m.stopRelease != nil {
		select {
		case <-m.stopRelease:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.stopErr
}

// mockGate answers every prompt with a fixed decision.
type mockGate struct {
	mu      sync.Mutex
	answer  bool
	err     error
	prompts []domain.Prompt
}

func (g *mockGate) Confirm(_ context.Context, p domain.Prompt) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	return g.answer, g.err
}

func (g *mockGate) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// mockSink records notifications.
type mockSink struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (s *mockSink) Notify(_ context.Context, n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

func (s *mockSink) all() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notes...)
}

// eventLog collects progress events from a subscription.
type eventLog struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (l *eventLog) add(e domain.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) overall() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Overall)
	}
	return out
}

var errBoom = errors.New("boom")

// fastSettings keeps test runs short.
func fastSettings() domain.SyncSettings {
	s := domain.DefaultSyncSettings()
	s.BatchDelay = 0
	s.PollInterval = 5 * time.Millisecond
	return s
}

func newTestOrchestrator(api *mockSyncAPI, gate *mockGate, sink *mockSink, runs driven.RunStore) *StageOrchestrator {
	o := NewStageOrchestrator(api, gate, sink, runs, StaticSettings(fastSettings()))
	n := 0
	o.newID = func() string {
		n++
		return "session-" + string(rune('0'+n))
	}
	return o
}

func (g *mockGate) setAnswer(answer bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answer = answer
}
