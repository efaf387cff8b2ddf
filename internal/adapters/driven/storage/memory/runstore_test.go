package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

func TestNewRunStore(t *testing.T) {
	store := NewRunStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.runs)
}

func TestRunStore_Record_Success(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	now := time.Now()
	rec := domain.RunRecord{
		ID:        "run-1",
		Stage:     domain.StageThree,
		Outcome:   domain.OutcomeStalled,
		Processed: 40,
		Total:     100,
		StartedAt: now,
		EndedAt:   now.Add(time.Minute),
	}

	require.NoError(t, store.Record(ctx, rec))

	saved, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStalled, saved.Outcome)
	assert.Equal(t, 40, saved.Processed)
	assert.Equal(t, domain.StageThree, saved.Stage)
}

func TestRunStore_Record_EmptyID(t *testing.T) {
	store := NewRunStore()
	err := store.Record(context.Background(), domain.RunRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunStore_Get_NotFound(t *testing.T) {
	store := NewRunStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_List_NewestFirst(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, domain.RunRecord{
			ID:        fmt.Sprintf("run-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "run-4", all[0].ID)
	assert.Equal(t, "run-0", all[4].ID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "run-4", limited[0].ID)
	assert.Equal(t, "run-3", limited[1].ID)
}

func TestRunStore_Clear(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, domain.RunRecord{ID: "run-1"}))

	require.NoError(t, store.Clear(ctx))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRunStore_ConcurrentAccess(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Record(ctx, domain.RunRecord{ID: fmt.Sprintf("run-%d", n)})
			_, _ = store.List(ctx, 10)
		}(i)
	}
	wg.Wait()

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
