package domain

import "time"

// RunKind identifies what kind of sync a run performed.
type RunKind string

const (
	// RunIncremental is a watermark-bounded incremental sync.
	RunIncremental RunKind = "incremental"

	// RunFull is a full-discovery sync.
	RunFull RunKind = "full"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	// RunRunning means the run is in progress.
	RunRunning RunStatus = "running"

	// RunCompleted means the run finished successfully. Only completed runs
	// may supply the watermark for the next detection pass.
	RunCompleted RunStatus = "completed"

	// RunFailed means the run aborted with an error.
	RunFailed RunStatus = "failed"
)

// RunStats aggregates the work a run performed.
type RunStats struct {
	PagesNew        int
	PagesModified   int
	PagesDeleted    int
	PagesMoved      int
	RevisionsAdded  int
	FilesDownloaded int

	// PageFailures counts per-page errors that were logged and skipped
	// without aborting the run.
	PageFailures int
}

// RunRecord is one entry in the run ledger.
type RunRecord struct {
	// ID is the unique run identifier.
	ID string

	// Kind is the sync mode of the run.
	Kind RunKind

	// StartTime and EndTime bound the run. EndTime is zero while running.
	StartTime time.Time
	EndTime   time.Time

	// Status is the lifecycle state.
	Status RunStatus

	// Stats aggregates the work performed, populated on completion.
	Stats RunStats

	// ErrorMessage holds the failure text for failed runs.
	ErrorMessage string
}
