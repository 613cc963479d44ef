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

func rev(id, pageID int64) domain.Revision {
	return domain.Revision{
		ID:        id,
		PageID:    pageID,
		Timestamp: time.Date(2024, 6, 1, 0, 0, int(id), 0, time.UTC),
	}
}

func TestRevisionSyncer_FetchNew(t *testing.T) {
	t.Run("asks only for revisions after the highest stored", func(t *testing.T) {
		feed := &fakeRevisionFeed{revisions: map[int64][]domain.Revision{
			7: {rev(1, 7), rev(2, 7), rev(3, 7)},
		}}
		syncer := NewRevisionSyncer(feed, memory.NewRevisionStore())

		revs, err := syncer.FetchNew(context.Background(), domain.PageUpdateInfo{
			PageID:                  7,
			HighestStoredRevisionID: 2,
		})
		require.NoError(t, err)
		require.Len(t, revs, 1)
		assert.Equal(t, int64(3), revs[0].ID)
		assert.Equal(t, int64(2), feed.lastAfter[7])
	})
}

func TestRevisionSyncer_InsertDeduplicated(t *testing.T) {
	t.Run("second insert of the same list writes nothing", func(t *testing.T) {
		syncer := NewRevisionSyncer(&fakeRevisionFeed{}, memory.NewRevisionStore())
		revs := []domain.Revision{rev(1, 7), rev(2, 7)}

		written, err := syncer.InsertDeduplicated(context.Background(), 7, revs)
		require.NoError(t, err)
		assert.Equal(t, 2, written)

		written, err = syncer.InsertDeduplicated(context.Background(), 7, revs)
		require.NoError(t, err)
		assert.Equal(t, 0, written)
	})

	t.Run("partial overlap writes only the fresh revisions", func(t *testing.T) {
		store := memory.NewRevisionStore()
		syncer := NewRevisionSyncer(&fakeRevisionFeed{}, store)

		_, err := syncer.InsertDeduplicated(context.Background(), 7, []domain.Revision{rev(1, 7)})
		require.NoError(t, err)

		written, err := syncer.InsertDeduplicated(context.Background(), 7, []domain.Revision{rev(1, 7), rev(2, 7)})
		require.NoError(t, err)
		assert.Equal(t, 1, written)

		count, err := store.CountRevisions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		syncer := NewRevisionSyncer(&fakeRevisionFeed{}, memory.NewRevisionStore())
		written, err := syncer.InsertDeduplicated(context.Background(), 7, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, written)
	})
}
