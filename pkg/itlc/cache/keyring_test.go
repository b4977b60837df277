package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func newTestKeyringStore(t *testing.T, now time.Time) *KeyringStore {
	t.Helper()
	keyring.MockInit()
	store := NewKeyringStore()
	store.nowFn = func() time.Time { return now }
	t.Cleanup(func() { _ = store.Clear() })
	return store
}

func TestKeyringStoreRoundTrip(t *testing.T) {
	now := time.Now()
	store := newTestKeyringStore(t, now)

	require.NoError(t, store.Save("user", NewEntry("user", testTokenSet(now), now)))

	entry, ok, err := store.Get("user")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "at", entry.AccessToken)
	assert.Equal(t, "idt", entry.IDToken)
}

func TestKeyringStoreGetMissing(t *testing.T) {
	store := newTestKeyringStore(t, time.Now())
	_, ok, err := store.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyringStoreGetEvictsExpired(t *testing.T) {
	now := time.Now()
	store := newTestKeyringStore(t, now)
	require.NoError(t, store.Save("user", NewEntry("user", testTokenSet(now), now)))

	store.nowFn = func() time.Time { return now.Add(2 * time.Hour) }
	_, ok, err := store.Get("user")
	require.NoError(t, err)
	assert.False(t, ok)

	// The index forgets the evicted key too.
	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestKeyringStoreListAndClear(t *testing.T) {
	now := time.Now()
	store := newTestKeyringStore(t, now)
	require.NoError(t, store.Save("alpha", NewEntry("alpha", testTokenSet(now), now)))
	require.NoError(t, store.Save("beta", NewEntry("beta", testTokenSet(now), now)))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Key, "index keeps keys sorted")
	assert.Equal(t, "beta", entries[1].Key)

	require.NoError(t, store.Clear())
	entries, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestKeyringStoreDeleteIdempotent(t *testing.T) {
	now := time.Now()
	store := newTestKeyringStore(t, now)
	require.NoError(t, store.Save("user", NewEntry("user", testTokenSet(now), now)))

	require.NoError(t, store.Delete("user"))
	require.NoError(t, store.Delete("user"))

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestKeyringStoreSaveSameKeyTwice(t *testing.T) {
	now := time.Now()
	store := newTestKeyringStore(t, now)
	require.NoError(t, store.Save("user", NewEntry("user", testTokenSet(now), now)))
	require.NoError(t, store.Save("user", NewEntry("user", testTokenSet(now), now)))

	entries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1, "index must not duplicate keys")
}
