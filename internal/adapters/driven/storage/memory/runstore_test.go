package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikivault/wikivault/internal/core/domain"
)

func TestRunStore_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("begin opens a running run", func(t *testing.T) {
		store := NewRunStore()
		run, err := store.Begin(ctx, domain.RunIncremental)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, domain.RunRunning, run.Status)
		assert.True(t, run.EndTime.IsZero())
	})

	t.Run("complete stamps end time and stats", func(t *testing.T) {
		store := NewRunStore()
		run, err := store.Begin(ctx, domain.RunIncremental)
		require.NoError(t, err)

		require.NoError(t, store.Complete(ctx, run.ID, domain.RunStats{PagesNew: 3}))

		runs, err := store.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, domain.RunCompleted, runs[0].Status)
		assert.Equal(t, 3, runs[0].Stats.PagesNew)
		assert.False(t, runs[0].EndTime.IsZero())
	})

	t.Run("fail stores the error text", func(t *testing.T) {
		store := NewRunStore()
		run, err := store.Begin(ctx, domain.RunIncremental)
		require.NoError(t, err)

		require.NoError(t, store.Fail(ctx, run.ID, errors.New("feed unavailable")))

		runs, err := store.List(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.RunFailed, runs[0].Status)
		assert.Equal(t, "feed unavailable", runs[0].ErrorMessage)
	})

	t.Run("unknown run id is rejected", func(t *testing.T) {
		store := NewRunStore()
		assert.ErrorIs(t, store.Complete(ctx, "nope", domain.RunStats{}), domain.ErrRunNotFound)
		assert.ErrorIs(t, store.Fail(ctx, "nope", errors.New("x")), domain.ErrRunNotFound)
	})
}

func TestRunStore_LastSuccessfulWatermark(t *testing.T) {
	ctx := context.Background()

	t.Run("absent without a completed run", func(t *testing.T) {
		store := NewRunStore()
		_, err := store.LastSuccessfulWatermark(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		run, err := store.Begin(ctx, domain.RunIncremental)
		require.NoError(t, err)
		require.NoError(t, store.Fail(ctx, run.ID, errors.New("boom")))

		_, err = store.LastSuccessfulWatermark(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("advances only on completed runs", func(t *testing.T) {
		store := NewRunStore()

		first, err := store.Begin(ctx, domain.RunIncremental)
		require.NoError(t, err)
		require.NoError(t, store.Complete(ctx, first.ID, domain.RunStats{}))
		watermark, err := store.LastSuccessfulWatermark(ctx)
		require.NoError(t, err)

		failed, err := store.Begin(ctx, domain.RunIncremental)
		require.NoError(t, err)
		require.NoError(t, store.Fail(ctx, failed.ID, errors.New("boom")))

		after, err := store.LastSuccessfulWatermark(ctx)
		require.NoError(t, err)
		assert.True(t, after.Equal(watermark))
	})
}

func TestRunStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore()

	for i := 0; i < 3; i++ {
		_, err := store.Begin(ctx, domain.RunIncremental)
		require.NoError(t, err)
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
