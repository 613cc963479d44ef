package driven

import (
	"context"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
)

// RunStore is the run ledger. It records run lifecycle and supplies the
// watermark that bounds the next change-feed query.
type RunStore interface {
	// Begin opens a run with status running and returns its record.
	Begin(ctx context.Context, kind domain.RunKind) (*domain.RunRecord, error)

	// Complete marks a run completed, stamps its end time and stores the
	// aggregate stats. Returns domain.ErrRunNotFound for an unknown id.
	Complete(ctx context.Context, runID string, stats domain.RunStats) error

	// Fail marks a run failed, stamps its end time and stores the error
	// text. Returns domain.ErrRunNotFound for an unknown id.
	Fail(ctx context.Context, runID string, runErr error) error

	// LastSuccessfulWatermark returns the end time of the most recent
	// completed run. Failed and running runs are invisible to this query.
	// Returns domain.ErrNotFound when no completed run exists.
	LastSuccessfulWatermark(ctx context.Context) (time.Time, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// CheckpointStore persists per-phase run progress as a single blob.
type CheckpointStore interface {
	// Load returns the persisted state, or a fresh empty state when nothing
	// is persisted or the persisted form is corrupt. Corruption is logged,
	// never returned as an error: losing a checkpoint only costs redundant
	// work, not correctness.
	Load(ctx context.Context) (*domain.CheckpointState, error)

	// Save atomically persists the state. A reader never observes a
	// partially written state.
	Save(ctx context.Context, state *domain.CheckpointState) error

	// Clear removes the persisted state. Safe to call when nothing is
	// persisted.
	Clear(ctx context.Context) error
}
