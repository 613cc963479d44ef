package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikivault/wikivault/internal/adapters/driven/storage/memory"
	"github.com/wikivault/wikivault/internal/core/domain"
)

func storePage(t *testing.T, pages *memory.PageStore, id int64, title string) {
	t.Helper()
	require.NoError(t, pages.UpsertPage(context.Background(), &domain.Page{
		ID:    id,
		Title: title,
	}))
}

func TestNewPageResolver_Verify(t *testing.T) {
	t.Run("returns only genuinely absent ids", func(t *testing.T) {
		pages := memory.NewPageStore(nil)
		storePage(t, pages, 2, "Already here")

		verified, err := NewNewPageResolver(pages).Verify(context.Background(), []int64{1, 2, 3})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 3}, verified.Sorted())
	})

	t.Run("empty input yields empty set", func(t *testing.T) {
		verified, err := NewNewPageResolver(memory.NewPageStore(nil)).Verify(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, verified)
	})
}

func TestModifiedPageResolver_Resolve(t *testing.T) {
	t.Run("drops ids that were never archived", func(t *testing.T) {
		revisions := memory.NewRevisionStore()
		pages := memory.NewPageStore(revisions)
		storePage(t, pages, 100, "Hundred")
		storePage(t, pages, 300, "Three hundred")

		infos, err := NewModifiedPageResolver(pages).Resolve(context.Background(), []int64{100, 200, 300})
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, int64(100), infos[0].PageID)
		assert.Equal(t, int64(300), infos[1].PageID)
	})

	t.Run("joins the highest stored revision", func(t *testing.T) {
		revisions := memory.NewRevisionStore()
		pages := memory.NewPageStore(revisions)
		storePage(t, pages, 100, "Hundred")

		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		_, err := revisions.InsertRevisions(context.Background(), 100, []domain.Revision{
			{ID: 11, PageID: 100, Timestamp: at.Add(-time.Hour)},
			{ID: 17, PageID: 100, Timestamp: at},
		})
		require.NoError(t, err)

		infos, err := NewModifiedPageResolver(pages).Resolve(context.Background(), []int64{100})
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, int64(17), infos[0].HighestStoredRevisionID)
		assert.True(t, infos[0].LastStoredRevisionTimestamp.Equal(at))
		assert.Equal(t, 2, infos[0].StoredRevisionCount)
	})

	t.Run("empty input yields no work", func(t *testing.T) {
		infos, err := NewModifiedPageResolver(memory.NewPageStore(nil)).Resolve(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})
}
