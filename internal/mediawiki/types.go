package mediawiki

import (
	"fmt"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
)

// timestampLayout is the ISO 8601 form the Action API accepts and emits.
const timestampLayout = "2006-01-02T15:04:05Z"

// rawChange is one recentchanges record as returned by the API.
// Fields are validated in toDomain; dynamic lookups never reach the core.
type rawChange struct {
	Type      string       `json:"type"`
	RCID      int64        `json:"rcid"`
	Namespace int          `json:"ns"`
	Title     string       `json:"title"`
	PageID    int64        `json:"pageid"`
	RevID     int64        `json:"revid"`
	OldRevID  int64        `json:"old_revid"`
	User      string       `json:"user"`
	UserID    int64        `json:"userid"`
	Timestamp string       `json:"timestamp"`
	Comment   string       `json:"comment"`
	OldLen    int          `json:"oldlen"`
	NewLen    int          `json:"newlen"`
	LogType   string       `json:"logtype"`
	LogAction string       `json:"logaction"`
	LogParams rawLogParams `json:"logparams"`
}

// rawLogParams carries the structured log parameters. Move events name
// their destination here; the free-text comment is never parsed for titles.
type rawLogParams struct {
	TargetTitle string `json:"target_title"`
}

// toDomain validates the record and converts it to a typed event.
func (r *rawChange) toDomain() (*domain.ChangeEvent, error) {
	kind := domain.ChangeKind(r.Type)
	switch kind {
	case domain.ChangeNew, domain.ChangeEdit, domain.ChangeLog:
	case "":
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	default:
		return nil, fmt.Errorf("unknown change type %q", r.Type)
	}

	if r.RCID == 0 {
		return nil, fmt.Errorf("%w: rcid", ErrMissingField)
	}
	if r.Title == "" {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	if r.Timestamp == "" {
		return nil, fmt.Errorf("%w: timestamp", ErrMissingField)
	}
	// Only log entries may legitimately report no live page id.
	if r.PageID == 0 && kind != domain.ChangeLog {
		return nil, fmt.Errorf("%w: pageid", ErrMissingField)
	}

	ts, err := time.Parse(timestampLayout, r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", r.Timestamp, err)
	}

	return &domain.ChangeEvent{
		SequenceID:         r.RCID,
		Kind:               kind,
		Namespace:          r.Namespace,
		Title:              r.Title,
		PageID:             r.PageID,
		NewRevisionID:      r.RevID,
		PreviousRevisionID: r.OldRevID,
		Timestamp:          ts.UTC(),
		Actor:              r.User,
		ActorID:            r.UserID,
		Comment:            r.Comment,
		OldSize:            r.OldLen,
		NewSize:            r.NewLen,
		LogSubtype:         r.LogType,
		LogAction:          r.LogAction,
		MoveTarget:         r.LogParams.TargetTitle,
	}, nil
}

// rawRevision is one revision record as returned by prop=revisions with
// rvslots=main.
type rawRevision struct {
	RevID     int64    `json:"revid"`
	ParentID  int64    `json:"parentid"`
	Timestamp string   `json:"timestamp"`
	User      string   `json:"user"`
	UserID    int64    `json:"userid"`
	Comment   string   `json:"comment"`
	Size      int      `json:"size"`
	SHA1      string   `json:"sha1"`
	Minor     bool     `json:"minor"`
	Tags      []string `json:"tags"`
	Slots     struct {
		Main struct {
			Content string `json:"content"`
		} `json:"main"`
	} `json:"slots"`
}

// toDomain validates the record and converts it to a typed revision.
func (r *rawRevision) toDomain(pageID int64) (*domain.Revision, error) {
	if r.RevID == 0 {
		return nil, fmt.Errorf("%w: revid", ErrMissingField)
	}
	if r.Timestamp == "" {
		return nil, fmt.Errorf("%w: timestamp", ErrMissingField)
	}

	ts, err := time.Parse(timestampLayout, r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", r.Timestamp, err)
	}

	return &domain.Revision{
		ID:        r.RevID,
		PageID:    pageID,
		ParentID:  r.ParentID,
		Timestamp: ts.UTC(),
		Actor:     r.User,
		ActorID:   r.UserID,
		Comment:   r.Comment,
		Content:   r.Slots.Main.Content,
		Size:      r.Size,
		SHA1:      r.SHA1,
		Minor:     r.Minor,
		Tags:      r.Tags,
	}, nil
}

// rawPage is one page record from prop=info or prop=revisions queries.
type rawPage struct {
	PageID    int64         `json:"pageid"`
	Namespace int           `json:"ns"`
	Title     string        `json:"title"`
	Redirect  bool          `json:"redirect"`
	Missing   bool          `json:"missing"`
	Revisions []rawRevision `json:"revisions"`
}

// rawImage is one allimages record.
type rawImage struct {
	Name      string `json:"name"`
	SHA1      string `json:"sha1"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Size      int64  `json:"size"`
}

// toDomain validates the record and converts it to a typed file.
func (r *rawImage) toDomain() (*domain.WikiFile, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if r.SHA1 == "" {
		return nil, fmt.Errorf("%w: sha1", ErrMissingField)
	}

	var uploaded time.Time
	if r.Timestamp != "" {
		ts, err := time.Parse(timestampLayout, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", r.Timestamp, err)
		}
		uploaded = ts.UTC()
	}

	return &domain.WikiFile{
		Name:       r.Name,
		SHA1:       r.SHA1,
		URL:        r.URL,
		Size:       r.Size,
		UploadedAt: uploaded,
	}, nil
}

// formatTimestamp renders a time in the API's accepted form.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
