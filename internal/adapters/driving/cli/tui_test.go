package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// sessionSequence reports each session in turn, then repeats the last.
type sessionSequence struct {
	mu       sync.Mutex
	sessions []domain.SyncSession
	calls    int
}

func (s *sessionSequence) Status() domain.SyncSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.sessions) {
		i = len(s.sessions) - 1
	}
	s.calls++
	return s.sessions[i]
}

func TestWaitForStop_Idle(t *testing.T) {
	seq := &sessionSequence{sessions: []domain.SyncSession{{Status: domain.StatusIdle}}}
	var out bytes.Buffer

	err := waitForStop(context.Background(), seq, &out, time.Millisecond)

	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Equal(t, 1, seq.calls)
}

func TestWaitForStop_UntilTerminal(t *testing.T) {
	seq := &sessionSequence{sessions: []domain.SyncSession{
		{Status: domain.StatusRunning},
		{Status: domain.StatusStopping},
		{Status: domain.StatusStopping},
		{Status: domain.StatusStoppedByUser, Message: "Stopped by user"},
	}}
	var out bytes.Buffer

	err := waitForStop(context.Background(), seq, &out, time.Millisecond)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Waiting for the active run to stop")
	assert.Contains(t, out.String(), "Stopped by user")
	assert.Equal(t, 4, seq.calls)
}

func TestWaitForStop_ContextCancelled(t *testing.T) {
	seq := &sessionSequence{sessions: []domain.SyncSession{{Status: domain.StatusStopping}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := waitForStop(ctx, seq, &bytes.Buffer{}, time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
