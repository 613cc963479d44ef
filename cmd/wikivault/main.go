// Command wikivault maintains a local archive of a MediaWiki wiki.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	checkpointfile "github.com/wikivault/wikivault/internal/adapters/driven/checkpoint/file"
	configfile "github.com/wikivault/wikivault/internal/adapters/driven/config/file"
	"github.com/wikivault/wikivault/internal/adapters/driven/storage/sqlite"
	"github.com/wikivault/wikivault/internal/adapters/driving/cli"
	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
	"github.com/wikivault/wikivault/internal/core/services"
	"github.com/wikivault/wikivault/internal/mediawiki"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, domain.ErrFullResyncRequired) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	config, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	if err := config.EnsureDefaults(); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	store, err := sqlite.NewStore(config.GetString(configfile.KeyStoragePath))
	if err != nil {
		return fmt.Errorf("opening archive database: %w", err)
	}
	defer store.Close()

	checkpoints, err := checkpointfile.NewCheckpointStore(checkpointPath(config))
	if err != nil {
		return fmt.Errorf("opening checkpoint store: %w", err)
	}

	sv := cli.Services{
		RunStore:        store.RunStore(),
		PageStore:       store.PageStore(),
		RevisionStore:   store.RevisionStore(),
		CheckpointStore: checkpoints,
		ConfigStore:     config,
	}

	// The orchestrator needs a wiki endpoint; leave it unwired until one
	// is configured so config and status commands still work.
	if endpoint := config.GetString(configfile.KeyWikiEndpoint); endpoint != "" {
		orchestrator, err := buildOrchestrator(config, store, checkpoints, endpoint)
		if err != nil {
			return err
		}
		sv.SyncOrchestrator = orchestrator
	}

	cli.SetServices(sv)
	cli.SetVersion(version)
	return cli.Execute()
}

func buildOrchestrator(
	config *configfile.ConfigStore,
	store *sqlite.Store,
	checkpoints driven.CheckpointStore,
	endpoint string,
) (*services.Orchestrator, error) {
	client, err := mediawiki.NewClient(endpoint, mediawiki.NewLimiter(config.GetFloat(configfile.KeySyncRateLimit)))
	if err != nil {
		return nil, fmt.Errorf("wiki endpoint %q: %w", endpoint, err)
	}
	if ua := config.GetString(configfile.KeyWikiUserAgent); ua != "" {
		client.SetUserAgent(ua)
	}

	revFeed := mediawiki.NewRevisionReader(client)

	detector := services.NewChangeDetector(mediawiki.NewChangeReader(client), store.RunStore())
	if namespaces := config.GetIntSlice(configfile.KeyWikiNamespaces); len(namespaces) > 0 {
		detector.SetOptions(driven.ChangeFeedOptions{Namespaces: namespaces})
	}

	var files *services.FileSyncer
	if config.GetBool(configfile.KeySyncFiles) {
		files = services.NewFileSyncer(mediawiki.NewImageReader(client), store.FileStore())
	}

	return services.NewOrchestrator(
		detector,
		services.NewNewPageResolver(store.PageStore()),
		services.NewModifiedPageResolver(store.PageStore()),
		services.NewRevisionSyncer(revFeed, store.RevisionStore()),
		files,
		store.PageStore(),
		revFeed,
		store.RunStore(),
		checkpoints,
	), nil
}

// checkpointPath resolves the configured checkpoint path, defaulting next to
// the archive database.
func checkpointPath(config *configfile.ConfigStore) string {
	if path := config.GetString(configfile.KeyCheckpointPath); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "checkpoint.json"
	}
	return filepath.Join(home, ".wikivault", "data", "checkpoint.json")
}
