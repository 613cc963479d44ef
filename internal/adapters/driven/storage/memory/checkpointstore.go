package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
// State is round-tripped through JSON so callers never share the stored
// value, matching the isolation of the file-backed adapter.
type CheckpointStore struct {
	mu   sync.RWMutex
	blob []byte
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{}
}

// Load returns the persisted state, or a fresh empty state.
func (s *CheckpointStore) Load(_ context.Context) (*domain.CheckpointState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.blob == nil {
		return domain.NewCheckpointState(""), nil
	}
	var state domain.CheckpointState
	if err := json.Unmarshal(s.blob, &state); err != nil {
		return domain.NewCheckpointState(""), nil
	}
	return &state, nil
}

// Save persists the state.
func (s *CheckpointStore) Save(_ context.Context, state *domain.CheckpointState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = blob
	return nil
}

// Clear removes the persisted state.
func (s *CheckpointStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	return nil
}
