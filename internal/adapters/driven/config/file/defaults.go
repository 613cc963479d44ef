package file

// Configuration keys understood by the application.
const (
	// KeyWikiEndpoint is the wiki's api.php URL.
	KeyWikiEndpoint = "wiki.endpoint"

	// KeyWikiUserAgent overrides the default HTTP user agent.
	KeyWikiUserAgent = "wiki.user_agent"

	// KeyWikiNamespaces restricts sync to these namespace numbers.
	KeyWikiNamespaces = "wiki.namespaces"

	// KeySyncRateLimit is the request rate toward the wiki, in requests
	// per second.
	KeySyncRateLimit = "sync.rate_limit"

	// KeySyncFiles toggles the file sync phase.
	KeySyncFiles = "sync.files"

	// KeyStoragePath is the data directory holding the SQLite archive.
	KeyStoragePath = "storage.path"

	// KeyCheckpointPath is the checkpoint file path.
	KeyCheckpointPath = "checkpoint.path"
)

// EnsureDefaults fills in any missing keys with their default values and
// persists them, so a fresh install gets a discoverable config file.
func (s *ConfigStore) EnsureDefaults() error {
	defaults := map[string]any{
		KeySyncRateLimit: 2.0,
		KeySyncFiles:     true,
	}
	for key, value := range defaults {
		if _, ok := s.Get(key); ok {
			continue
		}
		if err := s.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}
