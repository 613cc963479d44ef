package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
	"github.com/wikivault/wikivault/internal/logger"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore persists the checkpoint as a single JSON file. Saves go
// through a temp file and rename so a reader never observes a partial write.
type CheckpointStore struct {
	mu       sync.Mutex
	filePath string
}

// NewCheckpointStore creates a checkpoint store at the given path. The
// parent directory is created if needed.
func NewCheckpointStore(path string) (*CheckpointStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return &CheckpointStore{filePath: path}, nil
}

// Load returns the persisted state, or a fresh empty state when the file is
// missing or corrupt. Corruption is logged, not returned: losing a
// checkpoint only costs redundant work, not correctness.
func (s *CheckpointStore) Load(_ context.Context) (*domain.CheckpointState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewCheckpointState(""), nil
		}
		return nil, err
	}

	var state domain.CheckpointState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("checkpoint file %s is corrupt, starting fresh: %v", s.filePath, err)
		return domain.NewCheckpointState(""), nil
	}
	return &state, nil
}

// Save atomically persists the state.
func (s *CheckpointStore) Save(_ context.Context, state *domain.CheckpointState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".checkpoint-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Clear removes the persisted state. Safe when nothing is persisted.
func (s *CheckpointStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
