package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunRecord
	now  func() time.Time
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.RunRecord),
		now:  time.Now,
	}
}

// Begin opens a run with status running.
func (s *RunStore) Begin(_ context.Context, kind domain.RunKind) (*domain.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := domain.RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartTime: s.now().UTC(),
		Status:    domain.RunRunning,
	}
	s.runs[run.ID] = run
	return &run, nil
}

// Complete marks a run completed and stores its stats.
func (s *RunStore) Complete(_ context.Context, runID string, stats domain.RunStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return domain.ErrRunNotFound
	}
	run.Status = domain.RunCompleted
	run.EndTime = s.now().UTC()
	run.Stats = stats
	s.runs[runID] = run
	return nil
}

// Fail marks a run failed and stores the error text.
func (s *RunStore) Fail(_ context.Context, runID string, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return domain.ErrRunNotFound
	}
	run.Status = domain.RunFailed
	run.EndTime = s.now().UTC()
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	s.runs[runID] = run
	return nil
}

// LastSuccessfulWatermark returns the end time of the most recent completed
// run. Failed and running runs are invisible to this query.
func (s *RunStore) LastSuccessfulWatermark(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var watermark time.Time
	found := false
	for _, run := range s.runs {
		if run.Status != domain.RunCompleted {
			continue
		}
		if run.EndTime.After(watermark) {
			watermark = run.EndTime
			found = true
		}
	}
	if !found {
		return time.Time{}, domain.ErrNotFound
	}
	return watermark, nil
}

// List returns the most recent runs, newest first.
func (s *RunStore) List(_ context.Context, limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
