package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// Ensure RevisionStore implements the interface.
var _ driven.RevisionStore = (*RevisionStore)(nil)

// RevisionStore is an in-memory implementation of driven.RevisionStore.
type RevisionStore struct {
	mu   sync.RWMutex
	byID map[int64]map[int64]domain.Revision // pageID -> revID -> revision
}

// NewRevisionStore creates a new in-memory revision store.
func NewRevisionStore() *RevisionStore {
	return &RevisionStore{
		byID: make(map[int64]map[int64]domain.Revision),
	}
}

// InsertRevisions writes revisions for a page, skipping ids already present.
func (s *RevisionStore) InsertRevisions(_ context.Context, pageID int64, revs []domain.Revision) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.byID[pageID]
	if !ok {
		page = make(map[int64]domain.Revision)
		s.byID[pageID] = page
	}

	written := 0
	for i := range revs {
		if _, exists := page[revs[i].ID]; exists {
			continue
		}
		page[revs[i].ID] = revs[i]
		written++
	}
	return written, nil
}

// ExistingRevisionIDs reports which of the given revision ids are stored.
func (s *RevisionStore) ExistingRevisionIDs(_ context.Context, pageID int64, revIDs []int64) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[int64]bool, len(revIDs))
	page := s.byID[pageID]
	for _, id := range revIDs {
		if _, ok := page[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

// CountRevisions returns the number of stored revisions.
func (s *RevisionStore) CountRevisions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, page := range s.byID {
		count += len(page)
	}
	return count, nil
}

// highest returns the highest revision id, its timestamp and the stored
// count for a page. Used by the page store's aggregate query.
func (s *RevisionStore) highest(pageID int64) (int64, time.Time, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page := s.byID[pageID]
	var highest int64
	var at time.Time
	for id, rev := range page {
		if id > highest {
			highest = id
			at = rev.Timestamp
		}
	}
	return highest, at, len(page)
}
