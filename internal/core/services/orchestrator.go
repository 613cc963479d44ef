package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
	"github.com/wikivault/wikivault/internal/core/ports/driving"
	"github.com/wikivault/wikivault/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.SyncOrchestrator = (*Orchestrator)(nil)

// Orchestrator drives one incremental run through its phases:
// init, new_pages, modified_pages, deleted_pages, moved_pages, files.
//
// Progress is checkpointed after every completed page so an interrupted run
// resumes where it stopped. A per-page failure is logged and counted but
// never aborts its phase; a phase-level or infrastructure failure fails the
// whole run, records the failure in the ledger and leaves the checkpoint
// intact for the next attempt.
type Orchestrator struct {
	detector    *ChangeDetector
	newPages    *NewPageResolver
	modified    *ModifiedPageResolver
	revisions   *RevisionSyncer
	files       *FileSyncer // nil skips the files phase
	pages       driven.PageStore
	revFeed     driven.RevisionFeed
	runs        driven.RunStore
	checkpoints driven.CheckpointStore

	now func() time.Time

	// Status tracking
	mu      sync.RWMutex
	active  *driving.SyncStatus
	running bool
}

// NewOrchestrator creates an orchestrator over the given services and stores.
func NewOrchestrator(
	detector *ChangeDetector,
	newPages *NewPageResolver,
	modified *ModifiedPageResolver,
	revisions *RevisionSyncer,
	files *FileSyncer,
	pages driven.PageStore,
	revFeed driven.RevisionFeed,
	runs driven.RunStore,
	checkpoints driven.CheckpointStore,
) *Orchestrator {
	return &Orchestrator{
		detector:    detector,
		newPages:    newPages,
		modified:    modified,
		revisions:   revisions,
		files:       files,
		pages:       pages,
		revFeed:     revFeed,
		runs:        runs,
		checkpoints: checkpoints,
		now:         time.Now,
	}
}

// runState carries one run's mutable state through the phases.
type runState struct {
	run        *domain.RunRecord
	checkpoint *domain.CheckpointState
	changes    *domain.ChangeSet
	stats      domain.RunStats
}

// RunIncremental executes one incremental run.
func (o *Orchestrator) RunIncremental(ctx context.Context) (*domain.RunRecord, error) {
	if !o.tryStart() {
		return nil, domain.ErrSyncInProgress
	}
	defer o.finish()

	run, err := o.runs.Begin(ctx, domain.RunIncremental)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	o.setStatus(&driving.SyncStatus{Running: true, RunID: run.ID, Phase: domain.PhaseInit})

	st := &runState{run: run}
	if err := o.execute(ctx, st); err != nil {
		if failErr := o.runs.Fail(ctx, run.ID, err); failErr != nil {
			logger.Error("recording run failure: %v", failErr)
		}
		return nil, err
	}

	if err := o.runs.Complete(ctx, run.ID, st.stats); err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}
	if err := o.checkpoints.Clear(ctx); err != nil {
		logger.Warn("clearing checkpoint after completed run: %v", err)
	}

	run.Status = domain.RunCompleted
	run.Stats = st.stats
	run.EndTime = o.now().UTC()
	logger.Info("Run %s complete: %d new, %d modified, %d deleted, %d moved, %d revisions, %d files, %d page failures",
		run.ID, st.stats.PagesNew, st.stats.PagesModified, st.stats.PagesDeleted,
		st.stats.PagesMoved, st.stats.RevisionsAdded, st.stats.FilesDownloaded, st.stats.PageFailures)
	return run, nil
}

// execute walks the phase machine. Any error returned here fails the run.
func (o *Orchestrator) execute(ctx context.Context, st *runState) error {
	checkpoint, err := o.checkpoints.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if checkpoint.RunID != "" && checkpoint.RunID != st.run.ID {
		logger.Info("Resuming progress left by run %s", checkpoint.RunID)
	}
	checkpoint.RunID = st.run.ID
	st.checkpoint = checkpoint

	changes, err := o.detector.Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect changes: %w", err)
	}
	if changes.RequiresFullResync {
		return domain.ErrFullResyncRequired
	}
	st.changes = changes
	logger.Info("Detected %d new, %d modified, %d deleted, %d moved since %s",
		len(changes.NewPageIDs), len(changes.ModifiedPageIDs),
		len(changes.DeletedPageIDs), len(changes.MovedPages),
		changes.WatermarkBefore.Format(time.RFC3339))

	phases := []struct {
		phase domain.Phase
		run   func(context.Context, *runState) error
	}{
		{domain.PhaseNewPages, o.syncNewPages},
		{domain.PhaseModifiedPages, o.syncModifiedPages},
		{domain.PhaseDeletedPages, o.syncDeletedPages},
		{domain.PhaseMovedPages, o.syncMovedPages},
		{domain.PhaseFiles, o.syncFiles},
	}
	for _, p := range phases {
		if p.phase == domain.PhaseFiles && o.files == nil {
			continue
		}
		if err := o.enterPhase(ctx, st, p.phase); err != nil {
			return err
		}
		if err := p.run(ctx, st); err != nil {
			return fmt.Errorf("phase %s: %w", p.phase, err)
		}
	}
	return o.enterPhase(ctx, st, domain.PhaseComplete)
}

// syncNewPages fetches full histories for verified new pages.
func (o *Orchestrator) syncNewPages(ctx context.Context, st *runState) error {
	verified, err := o.newPages.Verify(ctx, st.changes.NewPageIDs.Sorted())
	if err != nil {
		return err
	}

	done := st.checkpoint.DoneSet(domain.PhaseNewPages)
	for _, pageID := range verified.Sorted() {
		if done.Contains(pageID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.archiveNewPage(ctx, st, pageID); err != nil {
			st.stats.PageFailures++
			o.countError()
			logger.Warn("new page %d: %v", pageID, err)
			continue
		}
		st.stats.PagesNew++
		if err := o.markPageDone(ctx, st, domain.PhaseNewPages, pageID); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) archiveNewPage(ctx context.Context, st *runState, pageID int64) error {
	page, err := o.revFeed.PageInfo(ctx, pageID)
	if err != nil {
		return fmt.Errorf("page info: %w", err)
	}

	revs, err := o.revisions.FetchAll(ctx, pageID)
	if err != nil {
		return err
	}

	now := o.now().UTC()
	page.CreatedAt = now
	page.UpdatedAt = now
	if err := o.pages.UpsertPage(ctx, page); err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}

	written, err := o.revisions.InsertDeduplicated(ctx, pageID, revs)
	if err != nil {
		return err
	}
	st.stats.RevisionsAdded += written
	return nil
}

// syncModifiedPages fetches only the revisions newer than what is stored.
func (o *Orchestrator) syncModifiedPages(ctx context.Context, st *runState) error {
	infos, err := o.modified.Resolve(ctx, st.changes.ModifiedPageIDs.Sorted())
	if err != nil {
		return err
	}

	done := st.checkpoint.DoneSet(domain.PhaseModifiedPages)
	for i := range infos {
		info := infos[i]
		if done.Contains(info.PageID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.updateModifiedPage(ctx, st, info); err != nil {
			st.stats.PageFailures++
			o.countError()
			logger.Warn("modified page %d: %v", info.PageID, err)
			continue
		}
		st.stats.PagesModified++
		if err := o.markPageDone(ctx, st, domain.PhaseModifiedPages, info.PageID); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) updateModifiedPage(ctx context.Context, st *runState, info domain.PageUpdateInfo) error {
	revs, err := o.revisions.FetchNew(ctx, info)
	if err != nil {
		return err
	}

	written, err := o.revisions.InsertDeduplicated(ctx, info.PageID, revs)
	if err != nil {
		return err
	}
	st.stats.RevisionsAdded += written

	page := &domain.Page{
		ID:         info.PageID,
		Namespace:  info.Namespace,
		Title:      info.Title,
		IsRedirect: info.IsRedirect,
		UpdatedAt:  o.now().UTC(),
	}
	if err := o.pages.UpsertPage(ctx, page); err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}

// syncDeletedPages flags deleted pages. Historical data is retained.
func (o *Orchestrator) syncDeletedPages(ctx context.Context, st *runState) error {
	done := st.checkpoint.DoneSet(domain.PhaseDeletedPages)
	for _, pageID := range st.changes.DeletedPageIDs.Sorted() {
		if done.Contains(pageID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.pages.MarkDeleted(ctx, pageID, o.now().UTC()); err != nil {
			st.stats.PageFailures++
			o.countError()
			logger.Warn("deleted page %d: %v", pageID, err)
			continue
		}
		st.stats.PagesDeleted++
		if err := o.markPageDone(ctx, st, domain.PhaseDeletedPages, pageID); err != nil {
			return err
		}
	}
	return nil
}

// syncMovedPages renames pages in place.
func (o *Orchestrator) syncMovedPages(ctx context.Context, st *runState) error {
	done := st.checkpoint.DoneSet(domain.PhaseMovedPages)
	for i := range st.changes.MovedPages {
		move := st.changes.MovedPages[i]
		if done.Contains(move.PageID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.pages.Rename(ctx, move.PageID, move.NewTitle, move.Namespace); err != nil {
			st.stats.PageFailures++
			o.countError()
			logger.Warn("moved page %d (%q -> %q): %v", move.PageID, move.OldTitle, move.NewTitle, err)
			continue
		}
		st.stats.PagesMoved++
		if err := o.markPageDone(ctx, st, domain.PhaseMovedPages, move.PageID); err != nil {
			return err
		}
	}
	return nil
}

// syncFiles refreshes files whose remote checksum changed.
func (o *Orchestrator) syncFiles(ctx context.Context, st *runState) error {
	changed, err := o.files.Changed(ctx)
	if err != nil {
		return err
	}

	done := st.checkpoint.FileDoneSet()
	for i := range changed {
		file := changed[i]
		if _, ok := done[file.Name]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.files.Apply(ctx, &file); err != nil {
			st.stats.PageFailures++
			o.countError()
			logger.Warn("file %q: %v", file.Name, err)
			continue
		}
		st.stats.FilesDownloaded++
		st.checkpoint.MarkFileDone(file.Name)
		if err := o.saveCheckpoint(ctx, st); err != nil {
			return err
		}
		o.countProcessed()
	}
	return nil
}

// Status returns the progress of the run in flight, or an idle status.
func (o *Orchestrator) Status(_ context.Context) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.active != nil {
		// Return a copy to avoid race conditions
		status := *o.active
		return &status, nil
	}
	return &driving.SyncStatus{Running: false}, nil
}

// enterPhase advances the checkpoint and status to the given phase.
func (o *Orchestrator) enterPhase(ctx context.Context, st *runState, phase domain.Phase) error {
	st.checkpoint.Phase = phase
	if err := o.saveCheckpoint(ctx, st); err != nil {
		return err
	}

	o.mu.Lock()
	if o.active != nil {
		o.active.Phase = phase
	}
	o.mu.Unlock()

	logger.Debug("entering phase %s", phase)
	return nil
}

// markPageDone records a completed page in the checkpoint and persists it.
func (o *Orchestrator) markPageDone(ctx context.Context, st *runState, phase domain.Phase, pageID int64) error {
	st.checkpoint.MarkDone(phase, pageID)
	if err := o.saveCheckpoint(ctx, st); err != nil {
		return err
	}
	o.countProcessed()
	return nil
}

func (o *Orchestrator) saveCheckpoint(ctx context.Context, st *runState) error {
	st.checkpoint.LastUpdated = o.now().UTC()
	if err := o.checkpoints.Save(ctx, st.checkpoint); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// tryStart claims the single-run slot. Returns false when a run is active.
func (o *Orchestrator) tryStart() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
	o.active = nil
}

func (o *Orchestrator) setStatus(status *driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = status
}

func (o *Orchestrator) countProcessed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		o.active.PagesProcessed++
	}
}

func (o *Orchestrator) countError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		o.active.ErrorCount++
	}
}
