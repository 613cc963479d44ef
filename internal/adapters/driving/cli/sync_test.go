package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	run *domain.RunRecord
	err error
}

func (m *mockSyncOrchestrator) RunIncremental(_ context.Context) (*domain.RunRecord, error) {
	return m.run, m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{}, nil
}

func setupSyncTest(mock *mockSyncOrchestrator) func() {
	oldSync := syncOrchestrator
	syncOrchestrator = mock
	return func() {
		syncOrchestrator = oldSync
	}
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync", syncCmd.Use)
}

func TestSyncCmd_Executes(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	cleanup := setupSyncTest(&mockSyncOrchestrator{run: &domain.RunRecord{
		ID:        "run-1",
		Status:    domain.RunCompleted,
		StartTime: start,
		EndTime:   start.Add(42 * time.Second),
		Stats:     domain.RunStats{PagesNew: 2, RevisionsAdded: 5},
	}})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Run run-1 completed")
	assert.Contains(t, buf.String(), "2 new")
	assert.Contains(t, buf.String(), "5 revisions added")
}

func TestSyncCmd_FullResyncRequired(t *testing.T) {
	cleanup := setupSyncTest(&mockSyncOrchestrator{err: domain.ErrFullResyncRequired})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	// The sentinel must survive unwrapped so main can map it to its own
	// exit code.
	assert.ErrorIs(t, err, domain.ErrFullResyncRequired)
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	oldSync := syncOrchestrator
	syncOrchestrator = nil
	defer func() {
		syncOrchestrator = oldSync
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}
