package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikivault/wikivault/internal/core/domain"
)

func newTestStore(t *testing.T) (*CheckpointStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sync", "checkpoint.json")
	store, err := NewCheckpointStore(path)
	require.NoError(t, err)
	return store, path
}

func TestCheckpointStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.RunID)
	assert.Equal(t, domain.PhaseInit, state.Phase)
}

func TestCheckpointStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	state := domain.NewCheckpointState("run-1")
	state.Phase = domain.PhaseNewPages
	state.MarkDone(domain.PhaseNewPages, 10)
	state.MarkFileDone("Map.png")
	require.NoError(t, store.Save(ctx, state))

	// No stray temp files after the rename.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checkpoint.json", entries[0].Name())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, domain.PhaseNewPages, loaded.Phase)
	assert.True(t, loaded.DoneSet(domain.PhaseNewPages).Contains(10))
	_, ok := loaded.FileDoneSet()["Map.png"]
	assert.True(t, ok)
}

func TestCheckpointStore_CorruptFileStartsFresh(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.RunID)
}

func TestCheckpointStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	// Clearing with nothing persisted is fine.
	require.NoError(t, store.Clear(ctx))

	require.NoError(t, store.Save(ctx, domain.NewCheckpointState("run-1")))
	require.NoError(t, store.Clear(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckpointStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	first := domain.NewCheckpointState("run-1")
	require.NoError(t, store.Save(ctx, first))

	second := domain.NewCheckpointState("run-2")
	second.Phase = domain.PhaseFiles
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", loaded.RunID)
	assert.Equal(t, domain.PhaseFiles, loaded.Phase)
}
