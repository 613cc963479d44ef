package services

import (
	"context"
	"fmt"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// RevisionSyncer fetches missing revisions for a page and writes them with a
// dedup safety net. The feed-driven fetch window and the store's highest
// known revision can race: a revision fetched once in a failed run and again
// in the resumed run must not be double-inserted.
type RevisionSyncer struct {
	feed      driven.RevisionFeed
	revisions driven.RevisionStore
}

// NewRevisionSyncer creates a syncer over the revision feed and store.
func NewRevisionSyncer(feed driven.RevisionFeed, revisions driven.RevisionStore) *RevisionSyncer {
	return &RevisionSyncer{feed: feed, revisions: revisions}
}

// FetchNew requests only revisions newer than the page's highest stored
// revision, oldest first.
func (s *RevisionSyncer) FetchNew(ctx context.Context, info domain.PageUpdateInfo) ([]domain.Revision, error) {
	revs, err := s.feed.FetchSince(ctx, info.PageID, info.HighestStoredRevisionID)
	if err != nil {
		return nil, fmt.Errorf("fetch revisions for page %d: %w", info.PageID, err)
	}
	return revs, nil
}

// FetchAll requests a page's full revision history, oldest first.
func (s *RevisionSyncer) FetchAll(ctx context.Context, pageID int64) ([]domain.Revision, error) {
	revs, err := s.feed.FetchSince(ctx, pageID, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch revisions for page %d: %w", pageID, err)
	}
	return revs, nil
}

// InsertDeduplicated writes the revisions that are not already stored and
// returns the count actually written, which may be less than len(revs).
func (s *RevisionSyncer) InsertDeduplicated(
	ctx context.Context,
	pageID int64,
	revs []domain.Revision,
) (int, error) {
	if len(revs) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(revs))
	for i := range revs {
		ids[i] = revs[i].ID
	}

	existing, err := s.revisions.ExistingRevisionIDs(ctx, pageID, ids)
	if err != nil {
		return 0, fmt.Errorf("check existing revisions for page %d: %w", pageID, err)
	}

	fresh := make([]domain.Revision, 0, len(revs))
	for i := range revs {
		if existing[revs[i].ID] {
			continue
		}
		fresh = append(fresh, revs[i])
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	// The store insert is itself idempotent, which covers the race where a
	// revision lands between the existence check and the write.
	written, err := s.revisions.InsertRevisions(ctx, pageID, fresh)
	if err != nil {
		return 0, fmt.Errorf("insert revisions for page %d: %w", pageID, err)
	}
	return written, nil
}
