package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// FileSyncer detects changed uploads by comparing remote checksums against
// the stored ones.
type FileSyncer struct {
	feed  driven.ImageFeed
	files driven.FileStore

	now func() time.Time
}

// NewFileSyncer creates a syncer over the image feed and file store.
func NewFileSyncer(feed driven.ImageFeed, files driven.FileStore) *FileSyncer {
	return &FileSyncer{
		feed:  feed,
		files: files,
		now:   time.Now,
	}
}

// Changed returns the remote files whose SHA1 differs from the stored
// checksum, including files never seen before.
func (s *FileSyncer) Changed(ctx context.Context) ([]domain.WikiFile, error) {
	remote, err := s.feed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote files: %w", err)
	}

	stored, err := s.files.StoredChecksums(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stored checksums: %w", err)
	}

	var changed []domain.WikiFile
	for i := range remote {
		if stored[remote[i].Name] == remote[i].SHA1 {
			continue
		}
		changed = append(changed, remote[i])
	}
	return changed, nil
}

// Apply records a changed file's current metadata and checksum.
func (s *FileSyncer) Apply(ctx context.Context, file *domain.WikiFile) error {
	file.DownloadedAt = s.now().UTC()
	if err := s.files.UpsertFile(ctx, file); err != nil {
		return fmt.Errorf("upsert file %q: %w", file.Name, err)
	}
	return nil
}
