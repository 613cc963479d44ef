package driven

import (
	"context"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
)

// PageStore persists archived pages.
type PageStore interface {
	// UpsertPage stores or updates a page record.
	UpsertPage(ctx context.Context, page *domain.Page) error

	// GetPage retrieves a page by id. Returns domain.ErrNotFound if absent.
	GetPage(ctx context.Context, pageID int64) (*domain.Page, error)

	// ExistingPages reports which of the given ids have a local record.
	ExistingPages(ctx context.Context, pageIDs []int64) (domain.PageIDSet, error)

	// HighestRevisions performs one batched lookup joining page metadata
	// with the highest stored revision per page. Ids with no local page
	// record are omitted from the result.
	HighestRevisions(ctx context.Context, pageIDs []int64) ([]domain.PageUpdateInfo, error)

	// MarkDeleted flags a page as deleted on the wiki. Historical data is
	// retained.
	MarkDeleted(ctx context.Context, pageID int64, at time.Time) error

	// Rename updates a page's title and namespace in place.
	Rename(ctx context.Context, pageID int64, newTitle string, namespace int) error

	// CountPages returns the number of stored pages, excluding deleted ones.
	CountPages(ctx context.Context) (int, error)
}

// RevisionStore persists archived revisions.
type RevisionStore interface {
	// InsertRevisions writes revisions for a page. The insert is idempotent:
	// a revision id already present is left untouched. Returns the number of
	// rows actually written.
	InsertRevisions(ctx context.Context, pageID int64, revs []domain.Revision) (int, error)

	// ExistingRevisionIDs reports which of the given revision ids are
	// already stored for a page.
	ExistingRevisionIDs(ctx context.Context, pageID int64, revIDs []int64) (map[int64]bool, error)

	// CountRevisions returns the number of stored revisions.
	CountRevisions(ctx context.Context) (int, error)
}

// FileStore persists archived file metadata.
type FileStore interface {
	// UpsertFile stores or updates a file record.
	UpsertFile(ctx context.Context, file *domain.WikiFile) error

	// StoredChecksums returns a map of file name to stored SHA1.
	StoredChecksums(ctx context.Context) (map[string]string, error)
}
