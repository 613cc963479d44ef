package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wikivault/wikivault/internal/core/domain"
)

var (
	statusLabelStyle = lipgloss.NewStyle().Bold(true).Width(18)
	statusOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	statusWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive and sync state",
	Long: `Shows the current watermark, local archive counts and whether an
interrupted run left a checkpoint behind.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if runStore == nil || pageStore == nil || revisionStore == nil || checkpointStore == nil {
		return errors.New("status services not configured")
	}

	ctx := cmd.Context()

	watermark, err := runStore.LastSuccessfulWatermark(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		cmd.Println(statusLine("Watermark", statusWarnStyle.Render("none (full resync required)")))
	case err != nil:
		return fmt.Errorf("reading watermark: %w", err)
	default:
		cmd.Println(statusLine("Watermark", statusOKStyle.Render(watermark.Format(time.RFC3339))))
	}

	pages, err := pageStore.CountPages(ctx)
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}
	revisions, err := revisionStore.CountRevisions(ctx)
	if err != nil {
		return fmt.Errorf("counting revisions: %w", err)
	}
	cmd.Println(statusLine("Pages", fmt.Sprintf("%d", pages)))
	cmd.Println(statusLine("Revisions", fmt.Sprintf("%d", revisions)))

	checkpoint, err := checkpointStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading checkpoint: %w", err)
	}
	if checkpoint.RunID != "" && checkpoint.Phase != domain.PhaseComplete {
		cmd.Println(statusLine("Checkpoint",
			statusWarnStyle.Render(fmt.Sprintf("interrupted at %s (run %s)", checkpoint.Phase, checkpoint.RunID))))
	} else {
		cmd.Println(statusLine("Checkpoint", "clean"))
	}

	if syncOrchestrator != nil {
		status, err := syncOrchestrator.Status(ctx)
		if err == nil && status.Running {
			cmd.Println(statusLine("Sync",
				statusOKStyle.Render(fmt.Sprintf("running (%s, %d pages)", status.Phase, status.PagesProcessed))))
		}
	}

	return nil
}

func statusLine(label, value string) string {
	return statusLabelStyle.Render(label) + " " + value
}
