package services

import (
	"context"
	"fmt"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
	"github.com/wikivault/wikivault/internal/logger"
)

// NewPageResolver verifies that candidate new pages really have no local
// record before a full history fetch. A feed replay or a stale watermark can
// double-report a page already archived; re-scraping it as new would risk
// duplicate revision history.
type NewPageResolver struct {
	pages driven.PageStore
}

// NewNewPageResolver creates a resolver over the page store.
func NewNewPageResolver(pages driven.PageStore) *NewPageResolver {
	return &NewPageResolver{pages: pages}
}

// Verify returns the subset of pageIDs with no local record. Ids already
// present are logged and excluded.
func (r *NewPageResolver) Verify(ctx context.Context, pageIDs []int64) (domain.PageIDSet, error) {
	if len(pageIDs) == 0 {
		return domain.NewPageIDSet(), nil
	}

	existing, err := r.pages.ExistingPages(ctx, pageIDs)
	if err != nil {
		return nil, fmt.Errorf("check existing pages: %w", err)
	}

	verified := domain.NewPageIDSet()
	for _, id := range pageIDs {
		if existing.Contains(id) {
			logger.Warn("page %d reported as new but already archived, excluding", id)
			continue
		}
		verified.Add(id)
	}
	return verified, nil
}

// ModifiedPageResolver computes the minimal fetch parameters for modified
// pages by consulting stored state.
type ModifiedPageResolver struct {
	pages driven.PageStore
}

// NewModifiedPageResolver creates a resolver over the page store.
func NewModifiedPageResolver(pages driven.PageStore) *ModifiedPageResolver {
	return &ModifiedPageResolver{pages: pages}
}

// Resolve performs one batched lookup joining page metadata with the highest
// stored revision per page. An id with no local record cannot be "modified";
// it is logged as a consistency problem and dropped from the batch.
func (r *ModifiedPageResolver) Resolve(ctx context.Context, pageIDs []int64) ([]domain.PageUpdateInfo, error) {
	if len(pageIDs) == 0 {
		return nil, nil
	}

	infos, err := r.pages.HighestRevisions(ctx, pageIDs)
	if err != nil {
		return nil, fmt.Errorf("lookup highest revisions: %w", err)
	}

	found := domain.NewPageIDSet()
	for i := range infos {
		found.Add(infos[i].PageID)
	}
	for _, id := range pageIDs {
		if !found.Contains(id) {
			logger.Warn("page %d reported as modified but never archived, dropping", id)
		}
	}
	return infos, nil
}
