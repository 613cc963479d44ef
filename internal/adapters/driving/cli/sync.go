package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one incremental sync",
	Long: `Runs one incremental synchronisation pass.

The run is bounded by the watermark of the last successful run. If no
successful run exists yet, the command fails with a full-resync error:
incremental mode needs a prior baseline.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Println("Starting incremental sync...")

	run, err := syncWithProgress(ctx, cmd, syncOrchestrator)
	if err != nil {
		if errors.Is(err, domain.ErrFullResyncRequired) {
			return err
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Run %s completed in %s.\n", run.ID, run.EndTime.Sub(run.StartTime).Round(time.Second))
	cmd.Printf("  %d new, %d modified, %d deleted, %d moved pages\n",
		run.Stats.PagesNew, run.Stats.PagesModified, run.Stats.PagesDeleted, run.Stats.PagesMoved)
	cmd.Printf("  %d revisions added, %d files refreshed, %d page failures\n",
		run.Stats.RevisionsAdded, run.Stats.FilesDownloaded, run.Stats.PageFailures)
	return nil
}

// syncWithProgress runs the sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orchestrator driving.SyncOrchestrator,
) (*domain.RunRecord, error) {
	type result struct {
		run *domain.RunRecord
		err error
	}

	// Start sync in goroutine
	resCh := make(chan result, 1)
	go func() {
		run, err := orchestrator.RunIncremental(ctx)
		resCh <- result{run: run, err: err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return res.run, res.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := orchestrator.Status(ctx)
			if statusErr == nil && status != nil && status.PagesProcessed > lastCount {
				cmd.Printf("\r%s: %d pages processed", status.Phase, status.PagesProcessed)
				lastCount = status.PagesProcessed
			}
		}
	}
}
