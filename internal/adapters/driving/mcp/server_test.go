package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil sync service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Files: &mockFileService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSyncService)
	})

	t.Run("nil file service returns error", func(t *testing.T) {
		_, err := NewServer(&Ports{Sync: &mockSyncOrchestrator{}})
		assert.ErrorIs(t, err, ErrMissingFileService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Sync:    &mockSyncOrchestrator{},
			Files:   &mockFileService{},
			History: &mockHistoryService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestGate(t *testing.T) {
	ctx := context.Background()
	prompt := domain.Prompt{Title: "Run Stage 1?"}

	ok, err := Gate{}.Confirm(ctx, prompt)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Gate{}.Confirm(withConfirmed(ctx, false), prompt)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Gate{}.Confirm(withConfirmed(ctx, true), prompt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServer_DrainStopsActiveRun(t *testing.T) {
	orch := &mockSyncOrchestrator{}
	orch.setStatus(domain.StatusRunning)
	server := newTestServer(t, &Ports{Sync: orch, Files: &mockFileService{}})

	server.drain()

	assert.Equal(t, 1, orch.stops)
	assert.True(t, orch.Status().CancelRequested)
}

func TestServer_DrainIdle(t *testing.T) {
	orch := &mockSyncOrchestrator{}
	server := newTestServer(t, &Ports{Sync: orch, Files: &mockFileService{}})

	server.drain()

	assert.Zero(t, orch.stops)
}

func TestServer_RunHTTPStopsWithContext(t *testing.T) {
	server := newTestServer(t, &Ports{Sync: &mockSyncOrchestrator{}, Files: &mockFileService{}})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
