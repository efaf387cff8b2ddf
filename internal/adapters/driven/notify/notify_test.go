package notify

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/logger"
)

func TestConsole_WritesTitleAndMessage(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Notify(context.Background(), domain.Notification{
		Kind:    domain.NotifyWarning,
		Title:   "Stage 3 stalled",
		Message: "No further progress possible",
	})

	out := buf.String()
	assert.Contains(t, out, "! Stage 3 stalled")
	assert.Contains(t, out, "No further progress possible")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestConsole_Symbols(t *testing.T) {
	tests := []struct {
		kind   domain.NotificationKind
		symbol string
	}{
		{domain.NotifySuccess, "✓"},
		{domain.NotifyWarning, "!"},
		{domain.NotifyError, "✗"},
		{domain.NotifyInfo, "•"},
		{"unknown", "•"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf).Notify(context.Background(), domain.Notification{Kind: tt.kind, Title: "T"})
			assert.Contains(t, buf.String(), tt.symbol+" T")
		})
	}
}

func TestConsole_NoMessage(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Notify(context.Background(), domain.Notification{Kind: domain.NotifySuccess, Title: "Stage 1 complete"})

	assert.Equal(t, "✓ Stage 1 complete\n", buf.String())
}

func TestLog_RoutesByKind(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(false)
	defer func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	}()

	Log{}.Notify(context.Background(), domain.Notification{Kind: domain.NotifySuccess, Title: "quiet"})
	Log{}.Notify(context.Background(), domain.Notification{Kind: domain.NotifyError, Title: "Stage 2 failed", Message: "Manifest locked"})

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "[ERROR] Stage 2 failed: Manifest locked")

	buf.Reset()
	logger.SetVerbose(true)
	Log{}.Notify(context.Background(), domain.Notification{Kind: domain.NotifyWarning, Title: "Stage 3 stalled"})
	assert.Contains(t, buf.String(), "[WARN] Stage 3 stalled")
}

func TestMulti_DeliversToAll(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	m := Multi{first, nil, second}

	n := domain.Notification{Kind: domain.NotifyInfo, Title: "Full Sync stopped"}
	m.Notify(context.Background(), n)

	assert.Equal(t, []domain.Notification{n}, first.All())
	assert.Equal(t, []domain.Notification{n}, second.All())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	var hooked []string
	r.OnNotify = func(n domain.Notification) { hooked = append(hooked, n.Title) }

	r.Notify(context.Background(), domain.Notification{Title: "a"})
	r.Notify(context.Background(), domain.Notification{Title: "b"})

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Title)
	assert.Len(t, r.All(), 2)
	assert.Equal(t, []string{"a", "b"}, hooked)
}
