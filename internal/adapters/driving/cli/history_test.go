package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

func sampleRuns() []domain.RunRecord {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	return []domain.RunRecord{
		{
			ID: "s2", Stage: domain.StageThree, Outcome: domain.OutcomeStalled,
			Message: "No further progress possible", Percentage: 80,
			StartedAt: start.Add(time.Hour), EndedAt: start.Add(time.Hour + 90*time.Second),
		},
		{
			ID: "s1", Stage: domain.StageOne, Outcome: domain.OutcomeSucceeded,
			Message: "Created 3 procedures", Percentage: 100, StartedAt: start,
		},
	}
}

func TestHistoryCmd_Table(t *testing.T) {
	history := &mockHistoryService{runs: sampleRuns()}

	out := mustExecute(t, &Services{History: history}, "history")

	assert.Equal(t, 10, history.limit)
	assert.Contains(t, out, "STARTED")
	assert.Regexp(t, `Stage 3\s+stalled\s+80%\s+1m30s\s+No further progress possible`, out)
	assert.Regexp(t, `Stage 1\s+succeeded\s+100%\s+-\s+Created 3 procedures`, out)
}

func TestHistoryCmd_Limit(t *testing.T) {
	history := &mockHistoryService{runs: sampleRuns()}

	out := mustExecute(t, &Services{History: history}, "history", "-n", "1")

	assert.Equal(t, 1, history.limit)
	assert.NotContains(t, out, "Created 3 procedures")
}

func TestHistoryCmd_Empty(t *testing.T) {
	out := mustExecute(t, &Services{History: &mockHistoryService{}}, "history")

	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryCmd_JSON(t *testing.T) {
	history := &mockHistoryService{runs: sampleRuns()}

	out := mustExecute(t, &Services{History: history}, "history", "--json")

	var runs []domain.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "s2", runs[0].ID)
}

func TestHistoryCmd_Clear(t *testing.T) {
	history := &mockHistoryService{runs: sampleRuns()}

	out := mustExecute(t, &Services{History: history}, "history", "--clear")

	assert.True(t, history.cleared)
	assert.Contains(t, out, "History cleared.")
}

func TestHistoryCmd_MissingService(t *testing.T) {
	_, err := execute(t, &Services{}, "history")

	assert.EqualError(t, err, "history service not configured")
}
