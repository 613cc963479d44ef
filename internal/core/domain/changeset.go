package domain

import (
	"sort"
	"time"
)

// PageIDSet is a set of wiki page identifiers.
type PageIDSet map[int64]struct{}

// NewPageIDSet creates a set from the given ids.
func NewPageIDSet(ids ...int64) PageIDSet {
	s := make(PageIDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts an id into the set.
func (s PageIDSet) Add(id int64) {
	s[id] = struct{}{}
}

// Remove deletes an id from the set.
func (s PageIDSet) Remove(id int64) {
	delete(s, id)
}

// Contains reports whether the id is in the set.
func (s PageIDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s PageIDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ChangeSet is the categorised output of one change-detection pass.
//
// The three id sets partition the page identifiers touched in the window:
// a page appears in exactly one of New, Modified or Deleted. A deletion
// anywhere in the window wins over both creation and edits for that id, and
// a creation wins over later edits. Moves are recorded independently.
type ChangeSet struct {
	// NewPageIDs are pages created within the window.
	NewPageIDs PageIDSet

	// ModifiedPageIDs are pages edited within the window that were not
	// created or deleted in it.
	ModifiedPageIDs PageIDSet

	// DeletedPageIDs are pages deleted within the window.
	DeletedPageIDs PageIDSet

	// MovedPages are page renames observed in the window, in event order.
	MovedPages []MovedPage

	// WatermarkBefore is the watermark the window was bounded by.
	WatermarkBefore time.Time

	// DetectedAt is when the detection pass ran.
	DetectedAt time.Time

	// RequiresFullResync is true when no prior successful run exists. All
	// other fields are empty in that case; incremental mode is undefined
	// without a watermark and the caller must fall back to full discovery.
	RequiresFullResync bool
}

// NewChangeSet returns an empty change set with initialised collections.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		NewPageIDs:      make(PageIDSet),
		ModifiedPageIDs: make(PageIDSet),
		DeletedPageIDs:  make(PageIDSet),
	}
}

// Empty reports whether the change set contains no work.
func (c *ChangeSet) Empty() bool {
	return len(c.NewPageIDs) == 0 &&
		len(c.ModifiedPageIDs) == 0 &&
		len(c.DeletedPageIDs) == 0 &&
		len(c.MovedPages) == 0
}

// TotalPages returns the number of distinct pages touched.
func (c *ChangeSet) TotalPages() int {
	return len(c.NewPageIDs) + len(c.ModifiedPageIDs) + len(c.DeletedPageIDs) + len(c.MovedPages)
}
