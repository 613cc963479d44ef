package memory

import (
	"context"
	"sync"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore is an in-memory implementation of driven.FileStore.
type FileStore struct {
	mu    sync.RWMutex
	files map[string]domain.WikiFile
}

// NewFileStore creates a new in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[string]domain.WikiFile),
	}
}

// UpsertFile stores or updates a file record.
func (s *FileStore) UpsertFile(_ context.Context, file *domain.WikiFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[file.Name] = *file
	return nil
}

// StoredChecksums returns a map of file name to stored SHA1.
func (s *FileStore) StoredChecksums(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[string]string, len(s.files))
	for name, file := range s.files {
		sums[name] = file.SHA1
	}
	return sums, nil
}
