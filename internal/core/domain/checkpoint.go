package domain

import "time"

// Phase is one step of the incremental sync state machine.
type Phase string

const (
	PhaseInit          Phase = "init"
	PhaseNewPages      Phase = "new_pages"
	PhaseModifiedPages Phase = "modified_pages"
	PhaseDeletedPages  Phase = "deleted_pages"
	PhaseMovedPages    Phase = "moved_pages"
	PhaseFiles         Phase = "files"
	PhaseComplete      Phase = "complete"
)

// CheckpointState records per-phase progress of a run so an interrupted run
// resumes without reprocessing. The completed sets act as resume filters:
// an id present in a set is skipped when the phase re-runs.
//
// The state is owned and mutated exclusively by the orchestrator; the
// checkpoint store is a dumb persistence adapter.
type CheckpointState struct {
	// RunID is the run this checkpoint belongs to.
	RunID string `json:"run_id"`

	// Phase is the phase the run had reached.
	Phase Phase `json:"phase"`

	// Completed page ids per page-touching phase.
	NewDone      []int64 `json:"new_done,omitempty"`
	ModifiedDone []int64 `json:"modified_done,omitempty"`
	DeletedDone  []int64 `json:"deleted_done,omitempty"`
	MovedDone    []int64 `json:"moved_done,omitempty"`

	// FilesDone are completed file names for the files phase.
	FilesDone []string `json:"files_done,omitempty"`

	// LastUpdated is when the checkpoint was last saved.
	LastUpdated time.Time `json:"last_updated"`
}

// NewCheckpointState creates an empty checkpoint for a run.
func NewCheckpointState(runID string) *CheckpointState {
	return &CheckpointState{
		RunID: runID,
		Phase: PhaseInit,
	}
}

// DoneSet returns the completed-id set for a page-touching phase.
func (c *CheckpointState) DoneSet(phase Phase) PageIDSet {
	switch phase {
	case PhaseNewPages:
		return NewPageIDSet(c.NewDone...)
	case PhaseModifiedPages:
		return NewPageIDSet(c.ModifiedDone...)
	case PhaseDeletedPages:
		return NewPageIDSet(c.DeletedDone...)
	case PhaseMovedPages:
		return NewPageIDSet(c.MovedDone...)
	default:
		return NewPageIDSet()
	}
}

// MarkDone records a completed page id for a phase.
func (c *CheckpointState) MarkDone(phase Phase, pageID int64) {
	switch phase {
	case PhaseNewPages:
		c.NewDone = append(c.NewDone, pageID)
	case PhaseModifiedPages:
		c.ModifiedDone = append(c.ModifiedDone, pageID)
	case PhaseDeletedPages:
		c.DeletedDone = append(c.DeletedDone, pageID)
	case PhaseMovedPages:
		c.MovedDone = append(c.MovedDone, pageID)
	}
}

// FileDoneSet returns the completed file names as a lookup set.
func (c *CheckpointState) FileDoneSet() map[string]struct{} {
	done := make(map[string]struct{}, len(c.FilesDone))
	for _, name := range c.FilesDone {
		done[name] = struct{}{}
	}
	return done
}

// MarkFileDone records a completed file name.
func (c *CheckpointState) MarkFileDone(name string) {
	c.FilesDone = append(c.FilesDone, name)
}
