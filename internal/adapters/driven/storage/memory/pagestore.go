package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// Ensure PageStore implements the interface.
var _ driven.PageStore = (*PageStore)(nil)

// PageStore is an in-memory implementation of driven.PageStore.
type PageStore struct {
	mu        sync.RWMutex
	pages     map[int64]domain.Page
	revisions *RevisionStore
}

// NewPageStore creates a new in-memory page store. The revision store is
// consulted for the highest-revision aggregate queries; it may be nil when a
// test never calls HighestRevisions.
func NewPageStore(revisions *RevisionStore) *PageStore {
	return &PageStore{
		pages:     make(map[int64]domain.Page),
		revisions: revisions,
	}
}

// UpsertPage stores or updates a page record.
func (s *PageStore) UpsertPage(_ context.Context, page *domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *page
	if prev, ok := s.pages[page.ID]; ok {
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = prev.CreatedAt
		}
		if stored.DeletedAt == nil {
			stored.DeletedAt = prev.DeletedAt
		}
	}
	s.pages[page.ID] = stored
	return nil
}

// GetPage retrieves a page by id.
func (s *PageStore) GetPage(_ context.Context, pageID int64) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[pageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &page, nil
}

// ExistingPages reports which of the given ids have a local record.
func (s *PageStore) ExistingPages(_ context.Context, pageIDs []int64) (domain.PageIDSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := domain.NewPageIDSet()
	for _, id := range pageIDs {
		if _, ok := s.pages[id]; ok {
			existing.Add(id)
		}
	}
	return existing, nil
}

// HighestRevisions joins page metadata with the highest stored revision per
// page. Ids with no local page record are omitted.
func (s *PageStore) HighestRevisions(_ context.Context, pageIDs []int64) ([]domain.PageUpdateInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []domain.PageUpdateInfo
	for _, id := range pageIDs {
		page, ok := s.pages[id]
		if !ok {
			continue
		}
		info := domain.PageUpdateInfo{
			PageID:     page.ID,
			Namespace:  page.Namespace,
			Title:      page.Title,
			IsRedirect: page.IsRedirect,
		}
		if s.revisions != nil {
			info.HighestStoredRevisionID,
				info.LastStoredRevisionTimestamp,
				info.StoredRevisionCount = s.revisions.highest(id)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// MarkDeleted flags a page as deleted on the wiki.
func (s *PageStore) MarkDeleted(_ context.Context, pageID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[pageID]
	if !ok {
		return domain.ErrNotFound
	}
	page.DeletedAt = &at
	page.UpdatedAt = at
	s.pages[pageID] = page
	return nil
}

// Rename updates a page's title and namespace in place.
func (s *PageStore) Rename(_ context.Context, pageID int64, newTitle string, namespace int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[pageID]
	if !ok {
		return domain.ErrNotFound
	}
	page.Title = newTitle
	page.Namespace = namespace
	s.pages[pageID] = page
	return nil
}

// CountPages returns the number of stored pages, excluding deleted ones.
func (s *PageStore) CountPages(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, page := range s.pages {
		if page.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}
