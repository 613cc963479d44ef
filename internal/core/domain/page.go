package domain

import "time"

// Page is the locally stored record of a wiki page.
type Page struct {
	// ID is the wiki page identifier.
	ID int64

	// Namespace is the page's namespace number.
	Namespace int

	// Title is the current page title.
	Title string

	// IsRedirect indicates the page is a redirect.
	IsRedirect bool

	// DeletedAt is set when the page was deleted on the wiki. Historical
	// revisions are retained; pages are never hard-deleted locally.
	DeletedAt *time.Time

	// CreatedAt and UpdatedAt track local record lifecycle.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Revision is one stored revision of a page.
type Revision struct {
	// ID is the wiki revision identifier.
	ID int64

	// PageID is the page this revision belongs to.
	PageID int64

	// ParentID is the revision this one replaced (0 for the first).
	ParentID int64

	// Timestamp is the revision time in UTC.
	Timestamp time.Time

	// Actor is the user name or IP that made the revision.
	Actor string

	// ActorID is the user id (0 for anonymous actors).
	ActorID int64

	// Comment is the edit summary.
	Comment string

	// Content is the revision wikitext.
	Content string

	// Size is the content size in bytes as reported by the wiki.
	Size int

	// SHA1 is the content checksum as reported by the wiki.
	SHA1 string

	// Minor indicates a minor edit.
	Minor bool

	// Tags are the change tags applied to the revision.
	Tags []string
}

// PageUpdateInfo is the resolved fetch plan for one modified page: page
// metadata joined with the highest revision already stored, so the fetcher
// asks only for revisions after HighestStoredRevisionID.
type PageUpdateInfo struct {
	PageID                      int64
	Namespace                   int
	Title                       string
	IsRedirect                  bool
	HighestStoredRevisionID     int64
	LastStoredRevisionTimestamp time.Time
	StoredRevisionCount         int
}

// WikiFile is the locally stored record of an uploaded wiki file.
type WikiFile struct {
	// Name is the file name (unique per wiki).
	Name string

	// SHA1 is the file content checksum as reported by the wiki.
	SHA1 string

	// URL is the download URL for the current version.
	URL string

	// Size is the file size in bytes.
	Size int64

	// UploadedAt is the upload time of the current version.
	UploadedAt time.Time

	// DownloadedAt is when the local copy was last refreshed.
	DownloadedAt time.Time
}
