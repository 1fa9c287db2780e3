package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHistoryStore_AddAndRecent(t *testing.T) {
	store := NewHistoryStore(openTestDB(t))

	base := time.Now().Add(-time.Hour)
	entries := []CheckEntry{
		{CheckedAt: base, Hostname: "db.internal.example", TunnelAddr: "127.0.0.1", Outcome: OutcomeOK, ServerVersion: "PostgreSQL 15.0", DurationMs: 120},
		{CheckedAt: base.Add(time.Minute), Hostname: "db.internal.example", TunnelAddr: "127.0.0.1", Outcome: "ConnectionFailure", DurationMs: 30015},
	}
	for _, e := range entries {
		require.NoError(t, store.Add(e))
	}

	got, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first
	assert.Equal(t, "ConnectionFailure", got[0].Outcome)
	assert.Equal(t, OutcomeOK, got[1].Outcome)
	assert.Equal(t, "PostgreSQL 15.0", got[1].ServerVersion)
	assert.Equal(t, int64(120), got[1].DurationMs)
	assert.Equal(t, "db.internal.example", got[1].Hostname)
}

func TestHistoryStore_RecentRespectsLimit(t *testing.T) {
	store := NewHistoryStore(openTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Add(CheckEntry{
			CheckedAt:  base.Add(time.Duration(i) * time.Minute),
			Hostname:   "db.internal.example",
			TunnelAddr: "127.0.0.1",
			Outcome:    OutcomeOK,
		}))
	}

	got, err := store.Recent(3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestHistoryStore_DefaultTimestamp(t *testing.T) {
	store := NewHistoryStore(openTestDB(t))

	require.NoError(t, store.Add(CheckEntry{
		Hostname:   "db.internal.example",
		TunnelAddr: "127.0.0.1",
		Outcome:    OutcomeOK,
	}))

	got, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, time.Now(), got[0].CheckedAt, time.Minute)
}

func TestHistoryStore_PrunesBeyondCap(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping prune test in short mode")
	}

	store := NewHistoryStore(openTestDB(t))

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < maxHistoryEntries+10; i++ {
		require.NoError(t, store.Add(CheckEntry{
			CheckedAt:  base.Add(time.Duration(i) * time.Second),
			Hostname:   fmt.Sprintf("host-%d.example", i),
			TunnelAddr: "127.0.0.1",
			Outcome:    OutcomeOK,
		}))
	}

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, maxHistoryEntries, count)

	// The oldest rows are the ones pruned.
	got, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fmt.Sprintf("host-%d.example", maxHistoryEntries+9), got[0].Hostname)
}
