package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikivault/wikivault/internal/core/domain"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent sync runs",
	Long:  `Lists the most recent sync runs from the run ledger, newest first.`,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if runStore == nil {
		return errors.New("run store not configured")
	}

	runs, err := runStore.List(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	for i := range runs {
		cmd.Println(formatRun(&runs[i]))
	}
	return nil
}

func formatRun(run *domain.RunRecord) string {
	started := run.StartTime.Format(time.RFC3339)

	switch run.Status {
	case domain.RunRunning:
		return fmt.Sprintf("%s  %-11s %-9s", started, run.Kind, run.Status)
	case domain.RunFailed:
		return fmt.Sprintf("%s  %-11s %-9s %s", started, run.Kind, run.Status, run.ErrorMessage)
	default:
		duration := run.EndTime.Sub(run.StartTime).Round(time.Second)
		return fmt.Sprintf("%s  %-11s %-9s +%d/~%d/-%d pages, %d revisions in %s",
			started, run.Kind, run.Status,
			run.Stats.PagesNew, run.Stats.PagesModified, run.Stats.PagesDeleted,
			run.Stats.RevisionsAdded, duration)
	}
}
