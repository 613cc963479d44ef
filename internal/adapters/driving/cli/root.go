// Package cli implements the command-line driving adapter using cobra.
// Commands talk to the core exclusively through the driving ports; the
// concrete services are injected by main via SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/wikivault/wikivault/internal/core/ports/driven"
	"github.com/wikivault/wikivault/internal/core/ports/driving"
	"github.com/wikivault/wikivault/internal/logger"
)

// Injected services. Nil until main wires them; commands guard against that
// so tests can exercise commands in isolation.
var (
	syncOrchestrator driving.SyncOrchestrator
	runStore         driven.RunStore
	pageStore        driven.PageStore
	revisionStore    driven.RevisionStore
	checkpointStore  driven.CheckpointStore
	configStore      driven.ConfigStore
)

var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "wikivault",
	Short: "Incremental MediaWiki archiver",
	Long: `wikivault keeps a local archive of a MediaWiki wiki up to date.

It reads the wiki's recent-changes feed since the last successful run,
fetches only the pages and revisions that changed, and records progress
in a checkpoint so interrupted runs resume where they stopped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Services bundles everything the commands need.
type Services struct {
	SyncOrchestrator driving.SyncOrchestrator
	RunStore         driven.RunStore
	PageStore        driven.PageStore
	RevisionStore    driven.RevisionStore
	CheckpointStore  driven.CheckpointStore
	ConfigStore      driven.ConfigStore
}

// SetServices injects the concrete services. Called by main after wiring.
func SetServices(services Services) {
	syncOrchestrator = services.SyncOrchestrator
	runStore = services.RunStore
	pageStore = services.PageStore
	revisionStore = services.RevisionStore
	checkpointStore = services.CheckpointStore
	configStore = services.ConfigStore
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
