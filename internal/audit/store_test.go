package audit

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"), 30)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreWriteAndQuery(t *testing.T) {
	store := testStore(t)

	now := time.Now()
	require.NoError(t, store.Write(Event{
		Timestamp: now,
		CommitID:  "c1",
		Handler:   "protocols-isis",
		Duration:  42 * time.Millisecond,
	}))
	require.NoError(t, store.Write(Event{
		Timestamp: now.Add(time.Second),
		CommitID:  "c1",
		Handler:   "interfaces-wireguard",
		Duration:  7 * time.Millisecond,
		Error:     "device busy",
	}))

	events, err := store.Query(now.Add(-time.Minute), now.Add(time.Minute), "", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, "interfaces-wireguard", events[0].Handler)
	assert.Equal(t, "device busy", events[0].Error)
	assert.Equal(t, 7*time.Millisecond, events[0].Duration)
	assert.Equal(t, "protocols-isis", events[1].Handler)
	assert.Empty(t, events[1].Error)
}

func TestStoreQueryFilterAndLimit(t *testing.T) {
	store := testStore(t)

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Write(Event{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			CommitID:  "c1",
			Handler:   "protocols-isis",
		}))
	}
	require.NoError(t, store.Write(Event{Timestamp: now, CommitID: "c1", Handler: "interfaces-wireguard"}))

	events, err := store.Query(now.Add(-time.Minute), now.Add(time.Minute), "protocols-isis", 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	for _, evt := range events {
		assert.Equal(t, "protocols-isis", evt.Handler)
	}
}

func TestStoreObserver(t *testing.T) {
	store := testStore(t)

	store.HandlerResult("c2", "protocols-isis", 12*time.Millisecond, nil)
	store.HandlerResult("c2", "interfaces-wireguard", 3*time.Millisecond, errors.New("boom"))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	events, err := store.Query(time.Now().Add(-time.Minute), time.Now().Add(time.Minute), "interfaces-wireguard", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "c2", events[0].CommitID)
	assert.Equal(t, "boom", events[0].Error)
}
