package domain

import "time"

// ChangeKind identifies the type of a recent-changes entry. The values match
// the MediaWiki API's rctype field.
type ChangeKind string

const (
	// ChangeNew is a page creation.
	ChangeNew ChangeKind = "new"

	// ChangeEdit is an edit to an existing page.
	ChangeEdit ChangeKind = "edit"

	// ChangeLog is an administrative log action (delete, move, ...).
	ChangeLog ChangeKind = "log"
)

// Log subtypes carried on ChangeLog events.
const (
	LogDelete = "delete"
	LogMove   = "move"
)

// ChangeEvent is one entry from the wiki's recent-changes feed.
// Events are parsed and validated at the connector boundary; a ChangeEvent
// that reaches the core always has its required fields populated.
type ChangeEvent struct {
	// SequenceID is the wiki-unique, monotonically increasing rcid.
	SequenceID int64

	// Kind is the change type: new, edit or log.
	Kind ChangeKind

	// Namespace is the page's namespace number.
	Namespace int

	// Title is the page title at the time of the event.
	Title string

	// PageID is the wiki page identifier. Zero is permitted only on log
	// events describing deletions, which report no live page id.
	PageID int64

	// NewRevisionID is the revision created by this change (0 for log events).
	NewRevisionID int64

	// PreviousRevisionID is the revision this change replaced.
	PreviousRevisionID int64

	// Timestamp is the event time in UTC.
	Timestamp time.Time

	// Actor is the user name or IP that made the change.
	Actor string

	// ActorID is the user id (0 for anonymous actors).
	ActorID int64

	// Comment is the edit or log summary.
	Comment string

	// OldSize and NewSize are the page byte sizes before and after.
	OldSize int
	NewSize int

	// LogSubtype is the log type for Kind==ChangeLog, e.g. "delete", "move".
	LogSubtype string

	// LogAction is the specific log action, e.g. "delete", "move", "move_redir".
	LogAction string

	// MoveTarget is the destination title for move log events, taken from
	// the structured log parameters rather than the free-text comment.
	MoveTarget string
}

// IsCreation reports whether the event records a page creation.
func (e *ChangeEvent) IsCreation() bool {
	return e.Kind == ChangeNew
}

// IsEdit reports whether the event records a plain edit.
func (e *ChangeEvent) IsEdit() bool {
	return e.Kind == ChangeEdit
}

// IsDeletion reports whether the event records a page deletion.
func (e *ChangeEvent) IsDeletion() bool {
	return e.Kind == ChangeLog && e.LogSubtype == LogDelete
}

// IsMove reports whether the event records a page move.
func (e *ChangeEvent) IsMove() bool {
	return e.Kind == ChangeLog && e.LogSubtype == LogMove
}

// SizeDelta returns the byte size change caused by the event.
func (e *ChangeEvent) SizeDelta() int {
	return e.NewSize - e.OldSize
}

// MovedPage records a page rename observed in the change window.
type MovedPage struct {
	PageID    int64
	OldTitle  string
	NewTitle  string
	Namespace int
	Timestamp time.Time
}
