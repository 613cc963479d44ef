package driven

import (
	"context"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
)

// ChangeFeedOptions filters a change-feed query.
type ChangeFeedOptions struct {
	// Namespaces restricts events to these namespace numbers. Empty means
	// all namespaces.
	Namespaces []int

	// Kinds restricts events to these change kinds. Empty means new, edit
	// and log.
	Kinds []domain.ChangeKind
}

// ChangeFeed reads the wiki's recent-changes log.
type ChangeFeed interface {
	// Fetch returns the events in [start, end] in chronological ascending
	// order. Returns domain.ErrInvalidRange when start is not before end.
	// A malformed individual record is logged and skipped; one bad event
	// does not abort the window.
	Fetch(ctx context.Context, start, end time.Time, opts ChangeFeedOptions) ([]domain.ChangeEvent, error)
}

// RevisionFeed reads per-page revision history from the wiki.
type RevisionFeed interface {
	// FetchSince returns revisions of the page with id greater than
	// afterRevisionID, oldest first. afterRevisionID of 0 returns the full
	// history.
	FetchSince(ctx context.Context, pageID, afterRevisionID int64) ([]domain.Revision, error)

	// PageInfo returns current metadata for a page. Returns
	// domain.ErrNotFound if the page does not exist on the wiki.
	PageInfo(ctx context.Context, pageID int64) (*domain.Page, error)
}

// ImageFeed lists the wiki's uploaded files.
type ImageFeed interface {
	// List returns all current files with their checksums, name ascending.
	List(ctx context.Context) ([]domain.WikiFile, error)
}
