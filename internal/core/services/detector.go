package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
	"github.com/wikivault/wikivault/internal/logger"
)

// ChangeDetector turns the raw change feed into a categorised ChangeSet.
//
// The feed is an event stream, not a state snapshot: one page can appear in
// many events of different kinds within a window. The detector therefore
// folds the whole window into per-kind sets first and partitions afterwards,
// so precedence is applied per page across the entire window rather than per
// event.
type ChangeDetector struct {
	feed driven.ChangeFeed
	runs driven.RunStore
	opts driven.ChangeFeedOptions

	now func() time.Time
}

// NewChangeDetector creates a detector over the given feed and run ledger.
func NewChangeDetector(feed driven.ChangeFeed, runs driven.RunStore) *ChangeDetector {
	return &ChangeDetector{
		feed: feed,
		runs: runs,
		now:  time.Now,
	}
}

// SetOptions restricts detection to the given namespaces and change kinds.
func (d *ChangeDetector) SetOptions(opts driven.ChangeFeedOptions) {
	d.opts = opts
}

// Detect runs one detection pass over the window [watermark, now).
//
// When no prior successful run exists the returned set has
// RequiresFullResync=true and nothing else: incremental mode is undefined
// without a watermark.
func (d *ChangeDetector) Detect(ctx context.Context) (*domain.ChangeSet, error) {
	detectedAt := d.now().UTC()

	watermark, err := d.runs.LastSuccessfulWatermark(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		cs := domain.NewChangeSet()
		cs.RequiresFullResync = true
		cs.DetectedAt = detectedAt
		return cs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	cs := domain.NewChangeSet()
	cs.WatermarkBefore = watermark
	cs.DetectedAt = detectedAt

	if !watermark.Before(detectedAt) {
		// Clock skew or back-to-back runs; an empty window is not an error.
		return cs, nil
	}

	events, err := d.feed.Fetch(ctx, watermark, detectedAt, d.opts)
	if err != nil {
		return nil, fmt.Errorf("fetch change window: %w", err)
	}

	d.fold(events, cs)
	return cs, nil
}

// fold partitions the window's events into the change set.
func (d *ChangeDetector) fold(events []domain.ChangeEvent, cs *domain.ChangeSet) {
	created := domain.NewPageIDSet()
	edited := domain.NewPageIDSet()
	deleted := domain.NewPageIDSet()

	// Deletion log events report no live page id. Track the last id seen per
	// title within the window so such deletions can still be attributed.
	titleIDs := make(map[string]int64)

	for i := range events {
		ev := &events[i]

		if ev.PageID != 0 {
			titleIDs[ev.Title] = ev.PageID
		}

		switch {
		case ev.IsCreation():
			created.Add(ev.PageID)

		case ev.IsEdit():
			edited.Add(ev.PageID)

		case ev.IsDeletion():
			id := ev.PageID
			if id == 0 {
				id = titleIDs[ev.Title]
			}
			if id == 0 {
				logger.Warn("deletion of %q carries no page id and none was seen in the window, skipping", ev.Title)
				continue
			}
			deleted.Add(id)

		case ev.IsMove():
			if ev.PageID == 0 || ev.MoveTarget == "" {
				logger.Warn("move of %q is missing page id or target, skipping", ev.Title)
				continue
			}
			cs.MovedPages = append(cs.MovedPages, domain.MovedPage{
				PageID:    ev.PageID,
				OldTitle:  ev.Title,
				NewTitle:  ev.MoveTarget,
				Namespace: ev.Namespace,
				Timestamp: ev.Timestamp,
			})
		}
	}

	// Precedence per page over the whole window: deleted beats created
	// beats edited.
	for id := range deleted {
		cs.DeletedPageIDs.Add(id)
	}
	for id := range created {
		if !deleted.Contains(id) {
			cs.NewPageIDs.Add(id)
		}
	}
	for id := range edited {
		if !deleted.Contains(id) && !created.Contains(id) {
			cs.ModifiedPageIDs.Add(id)
		}
	}
}
