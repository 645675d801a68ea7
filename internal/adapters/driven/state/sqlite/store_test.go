package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tablesync-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tablesync-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrations again; they must be no-ops.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestCheckpointStore_LoadEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	cp, err := store.CheckpointStore().Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cp.IsZero())
}

func TestCheckpointStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()

	cps := store.CheckpointStore()
	want := domain.Checkpoint{
		LastProcessedPage:     12,
		LastProcessedRecordID: 4815,
		Timestamp:             time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cps.Save(ctx, want))

	got, err := cps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.LastProcessedPage, got.LastProcessedPage)
	assert.Equal(t, want.LastProcessedRecordID, got.LastProcessedRecordID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}

func TestCheckpointStore_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()

	cps := store.CheckpointStore()
	require.NoError(t, cps.Save(ctx, domain.Checkpoint{LastProcessedPage: 1, LastProcessedRecordID: 100}))
	require.NoError(t, cps.Save(ctx, domain.Checkpoint{LastProcessedPage: 2, LastProcessedRecordID: 200}))

	got, err := cps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LastProcessedPage)
	assert.Equal(t, 200, got.LastProcessedRecordID)
}

func TestFailureLog_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()

	log := store.FailureLog()
	require.NoError(t, log.Append(ctx, domain.Failure{ID: "42", Error: "wrong vector dimensions", RunID: "run-a"}))
	require.NoError(t, log.Append(ctx, domain.Failure{ID: "page-9", Error: "fetch page 9: timeout", RunID: "run-a"}))

	failures, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 2)

	assert.Equal(t, "42", failures[0].ID)
	assert.Equal(t, "wrong vector dimensions", failures[0].Error)
	assert.Equal(t, "run-a", failures[0].RunID)
	assert.False(t, failures[0].Time.IsZero())
	assert.Equal(t, "page-9", failures[1].ID)
}

func TestFailureLog_EmptyList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	failures, err := store.FailureLog().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestFailureLog_PersistsAcrossReopen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tablesync-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.FailureLog().Append(context.Background(), domain.Failure{ID: "7", Error: "boom"}))
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	failures, err := store.FailureLog().List(context.Background())
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "7", failures[0].ID)
}
