package driving

import (
	"context"

	"github.com/wikivault/wikivault/internal/core/domain"
)

// SyncOrchestrator drives incremental synchronisation of the archive.
type SyncOrchestrator interface {
	// RunIncremental executes one watermark-bounded incremental run and
	// returns its ledger record. Returns domain.ErrFullResyncRequired when
	// no prior successful run exists; the caller must fall back to full
	// discovery.
	RunIncremental(ctx context.Context) (*domain.RunRecord, error)

	// Status returns the progress of the run in flight, or an idle status.
	Status(ctx context.Context) (*SyncStatus, error)
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// Running indicates if a sync is currently in progress.
	Running bool

	// RunID identifies the run in flight, empty when idle.
	RunID string

	// Phase is the phase the run has reached.
	Phase domain.Phase

	// PagesProcessed is the count of page units completed so far.
	PagesProcessed int

	// ErrorCount is the number of per-page errors encountered.
	ErrorCount int
}
