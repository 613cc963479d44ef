package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikivault/wikivault/internal/adapters/driven/storage/memory"
	"github.com/wikivault/wikivault/internal/core/domain"
)

// fakeRevisionFeed implements driven.RevisionFeed for testing.
type fakeRevisionFeed struct {
	revisions  map[int64][]domain.Revision
	pages      map[int64]domain.Page
	errs       map[int64]error
	fetchCalls map[int64]int
	lastAfter  map[int64]int64
}

func (f *fakeRevisionFeed) FetchSince(_ context.Context, pageID, afterRevisionID int64) ([]domain.Revision, error) {
	if f.fetchCalls == nil {
		f.fetchCalls = make(map[int64]int)
	}
	f.fetchCalls[pageID]++
	if f.lastAfter == nil {
		f.lastAfter = make(map[int64]int64)
	}
	f.lastAfter[pageID] = afterRevisionID

	if err := f.errs[pageID]; err != nil {
		return nil, err
	}
	var revs []domain.Revision
	for _, r := range f.revisions[pageID] {
		if r.ID > afterRevisionID {
			revs = append(revs, r)
		}
	}
	return revs, nil
}

func (f *fakeRevisionFeed) PageInfo(_ context.Context, pageID int64) (*domain.Page, error) {
	if err := f.errs[pageID]; err != nil {
		return nil, err
	}
	page, ok := f.pages[pageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &page, nil
}

// fakeImageFeed implements driven.ImageFeed for testing.
type fakeImageFeed struct {
	files []domain.WikiFile
	err   error
}

func (f *fakeImageFeed) List(_ context.Context) ([]domain.WikiFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

// orchestratorFixture wires an orchestrator over memory stores and fakes.
type orchestratorFixture struct {
	feed        *fakeChangeFeed
	revFeed     *fakeRevisionFeed
	imgFeed     *fakeImageFeed
	pages       *memory.PageStore
	revisions   *memory.RevisionStore
	files       *memory.FileStore
	runs        *memory.RunStore
	checkpoints *memory.CheckpointStore

	orchestrator *Orchestrator
	watermark    time.Time
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		feed:        &fakeChangeFeed{},
		revFeed:     &fakeRevisionFeed{revisions: map[int64][]domain.Revision{}, pages: map[int64]domain.Page{}, errs: map[int64]error{}},
		imgFeed:     &fakeImageFeed{},
		revisions:   memory.NewRevisionStore(),
		files:       memory.NewFileStore(),
		runs:        memory.NewRunStore(),
		checkpoints: memory.NewCheckpointStore(),
	}
	f.pages = memory.NewPageStore(f.revisions)
	f.watermark = seedCompletedRun(t, f.runs)

	detector := NewChangeDetector(f.feed, f.runs)
	detector.now = func() time.Time { return f.watermark.Add(time.Hour) }

	f.orchestrator = NewOrchestrator(
		detector,
		NewNewPageResolver(f.pages),
		NewModifiedPageResolver(f.pages),
		NewRevisionSyncer(f.revFeed, f.revisions),
		NewFileSyncer(f.imgFeed, f.files),
		f.pages,
		f.revFeed,
		f.runs,
		f.checkpoints,
	)
	return f
}

func TestOrchestrator_RunIncremental(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every phase and completes the run", func(t *testing.T) {
		f := newOrchestratorFixture(t)

		// Existing archive: page 20 with two revisions, pages 30 and 40.
		storePage(t, f.pages, 20, "Twenty")
		storePage(t, f.pages, 30, "Thirty")
		storePage(t, f.pages, 40, "Forty")
		_, err := f.revisions.InsertRevisions(ctx, 20, []domain.Revision{rev(201, 20), rev(202, 20)})
		require.NoError(t, err)

		// Window: page 10 created, page 20 edited, page 30 deleted,
		// page 40 moved. One new file upstream.
		f.feed.events = []domain.ChangeEvent{
			newEvent(1, domain.ChangeNew, 10, "Ten"),
			newEvent(2, domain.ChangeEdit, 20, "Twenty"),
			deletionEvent(3, 30, "Thirty"),
			moveEvent(4, 40, "Forty", "Forty renamed"),
		}
		f.revFeed.pages[10] = domain.Page{ID: 10, Title: "Ten"}
		f.revFeed.revisions[10] = []domain.Revision{rev(101, 10)}
		f.revFeed.revisions[20] = []domain.Revision{rev(201, 20), rev(202, 20), rev(203, 20)}
		f.imgFeed.files = []domain.WikiFile{{Name: "Map.png", SHA1: "abc"}}

		run, err := f.orchestrator.RunIncremental(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, run.Status)
		assert.Equal(t, 1, run.Stats.PagesNew)
		assert.Equal(t, 1, run.Stats.PagesModified)
		assert.Equal(t, 1, run.Stats.PagesDeleted)
		assert.Equal(t, 1, run.Stats.PagesMoved)
		assert.Equal(t, 2, run.Stats.RevisionsAdded) // 101 plus 203
		assert.Equal(t, 1, run.Stats.FilesDownloaded)
		assert.Equal(t, 0, run.Stats.PageFailures)

		// Only the revision after the highest stored one was requested.
		assert.Equal(t, int64(202), f.revFeed.lastAfter[20])

		page10, err := f.pages.GetPage(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "Ten", page10.Title)

		page30, err := f.pages.GetPage(ctx, 30)
		require.NoError(t, err)
		assert.NotNil(t, page30.DeletedAt)

		page40, err := f.pages.GetPage(ctx, 40)
		require.NoError(t, err)
		assert.Equal(t, "Forty renamed", page40.Title)

		// The checkpoint is cleared after success.
		cp, err := f.checkpoints.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, cp.RunID)

		// The watermark advanced to this run's end time.
		watermark, err := f.runs.LastSuccessfulWatermark(ctx)
		require.NoError(t, err)
		assert.True(t, watermark.After(f.watermark))
	})

	t.Run("first ever run fails with full resync error", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		// Replace the ledger with an empty one so no watermark exists.
		f.runs = memory.NewRunStore()
		detector := NewChangeDetector(f.feed, f.runs)
		f.orchestrator.detector = detector
		f.orchestrator.runs = f.runs

		_, err := f.orchestrator.RunIncremental(ctx)
		assert.ErrorIs(t, err, domain.ErrFullResyncRequired)

		runs, err := f.runs.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, domain.RunFailed, runs[0].Status)
		assert.Contains(t, runs[0].ErrorMessage, "full resync")
	})

	t.Run("a bad page does not abort its phase", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.feed.events = []domain.ChangeEvent{
			newEvent(1, domain.ChangeNew, 10, "Ten"),
			newEvent(2, domain.ChangeNew, 11, "Eleven"),
		}
		f.revFeed.errs[10] = errors.New("fetch exploded")
		f.revFeed.pages[11] = domain.Page{ID: 11, Title: "Eleven"}
		f.revFeed.revisions[11] = []domain.Revision{rev(111, 11)}

		run, err := f.orchestrator.RunIncremental(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, run.Status)
		assert.Equal(t, 1, run.Stats.PagesNew)
		assert.Equal(t, 1, run.Stats.PageFailures)

		_, err = f.pages.GetPage(ctx, 11)
		assert.NoError(t, err)
		_, err = f.pages.GetPage(ctx, 10)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("resume skips pages the checkpoint marks done", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		storePage(t, f.pages, 20, "Twenty")
		storePage(t, f.pages, 21, "Twenty one")
		f.feed.events = []domain.ChangeEvent{
			newEvent(1, domain.ChangeEdit, 20, "Twenty"),
			newEvent(2, domain.ChangeEdit, 21, "Twenty one"),
		}
		f.revFeed.revisions[21] = []domain.Revision{rev(211, 21)}

		// A previous run already finished page 20 before it was interrupted.
		interrupted := domain.NewCheckpointState("earlier-run")
		interrupted.Phase = domain.PhaseModifiedPages
		interrupted.MarkDone(domain.PhaseModifiedPages, 20)
		require.NoError(t, f.checkpoints.Save(ctx, interrupted))

		run, err := f.orchestrator.RunIncremental(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, run.Status)
		assert.Equal(t, 0, f.revFeed.fetchCalls[20])
		assert.Equal(t, 1, f.revFeed.fetchCalls[21])
	})

	t.Run("infrastructure failure fails the run and keeps the checkpoint", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		storePage(t, f.pages, 20, "Twenty")
		f.feed.events = []domain.ChangeEvent{
			newEvent(1, domain.ChangeEdit, 20, "Twenty"),
		}
		f.revFeed.revisions[20] = []domain.Revision{rev(201, 20)}
		f.imgFeed.err = errors.New("image listing down")

		_, err := f.orchestrator.RunIncremental(ctx)
		require.Error(t, err)

		runs, err := f.runs.List(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.RunFailed, runs[0].Status)

		// Progress made before the failure survives for the next attempt.
		cp, err := f.checkpoints.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseFiles, cp.Phase)
		assert.Contains(t, cp.ModifiedDone, int64(20))

		// The failed run did not advance the watermark.
		watermark, watermarkErr := f.runs.LastSuccessfulWatermark(ctx)
		require.NoError(t, watermarkErr)
		assert.True(t, watermark.Equal(f.watermark))
	})

	t.Run("rejects a second concurrent run", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		require.True(t, f.orchestrator.tryStart())
		defer f.orchestrator.finish()

		_, err := f.orchestrator.RunIncremental(ctx)
		assert.ErrorIs(t, err, domain.ErrSyncInProgress)
	})

	t.Run("cancellation stops between pages and fails the run", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.feed.events = []domain.ChangeEvent{
			newEvent(1, domain.ChangeNew, 10, "Ten"),
		}
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.orchestrator.RunIncremental(cancelled)
		assert.ErrorIs(t, err, context.Canceled)

		runs, err := f.runs.List(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.RunFailed, runs[0].Status)
	})

	t.Run("file sync disabled skips the files phase", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.orchestrator.files = nil
		f.imgFeed.files = []domain.WikiFile{{Name: "Map.png", SHA1: "abc"}}

		run, err := f.orchestrator.RunIncremental(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, run.Status)
		assert.Zero(t, run.Stats.FilesDownloaded)

		checksums, err := f.files.StoredChecksums(ctx)
		require.NoError(t, err)
		assert.Empty(t, checksums)
	})
}

func TestOrchestrator_Status(t *testing.T) {
	t.Run("idle orchestrator reports not running", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		status, err := f.orchestrator.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, status.Running)
		assert.Empty(t, status.RunID)
	})
}
