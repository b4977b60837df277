package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itlusions/itlc/pkg/itlc/auth"
)

func testTokenSet(now time.Time) auth.TokenSet {
	return auth.TokenSet{
		AccessToken:  "at",
		RefreshToken: "rt",
		IDToken:      "idt",
		TokenType:    "Bearer",
		Scope:        "openid profile",
		ExpiresAt:    now.Add(time.Hour),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	store := NewFileStore(t.TempDir())
	store.nowFn = func() time.Time { return now }

	require.NoError(t, store.Save("user@example.com", NewEntry("user@example.com", testTokenSet(now), now)))

	entry, ok, err := store.Get("user@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user@example.com", entry.Key)
	assert.Equal(t, "at", entry.AccessToken)
	assert.Equal(t, "idt", entry.IDToken)
	assert.True(t, entry.CachedAt.Equal(now))

	ts := entry.TokenSet()
	assert.Equal(t, "rt", ts.RefreshToken)
	assert.Equal(t, "openid profile", ts.Scope)
}

func TestFileStoreHashedFilenamesAndPermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	now := time.Now()

	key := "realm/client with spaces/../escape"
	require.NoError(t, store.Save(key, NewEntry(key, testTokenSet(now), now)))

	sum := sha256.Sum256([]byte(key))
	path := filepath.Join(dir, hex.EncodeToString(sum[:])+".json")
	info, err := os.Stat(path)
	require.NoError(t, err, "filename must be the sha256 of the key")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm()&0o700)
}

func TestFileStoreGetEvictsExpired(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	base := time.Now()
	store.nowFn = func() time.Time { return base }

	require.NoError(t, store.Save("key", NewEntry("key", testTokenSet(base), base)))

	// Advance past expiry: the read misses and the file is gone.
	store.nowFn = func() time.Time { return base.Add(2 * time.Hour) }
	_, ok, err := store.Get("key")
	require.NoError(t, err)
	assert.False(t, ok)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileStoreGetEvictsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	sum := sha256.Sum256([]byte("key"))
	path := filepath.Join(dir, hex.EncodeToString(sum[:])+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok, err := store.Get("key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, path)
}

func TestFileStoreGetMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, ok, err := store.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreListRedacts(t *testing.T) {
	store := NewFileStore(t.TempDir())
	now := time.Now()
	require.NoError(t, store.Save("alpha", NewEntry("alpha", testTokenSet(now), now)))
	require.NoError(t, store.Save("beta", NewEntry("beta", testTokenSet(now), now)))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	keys := []string{entries[0].Key, entries[1].Key}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, keys)
	for _, m := range entries {
		assert.Equal(t, "Bearer", m.TokenType)
		assert.False(t, m.ExpiresAt.IsZero())
	}
}

func TestFileStoreListMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-created"))
	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreDeleteAndClear(t *testing.T) {
	store := NewFileStore(t.TempDir())
	now := time.Now()
	require.NoError(t, store.Save("alpha", NewEntry("alpha", testTokenSet(now), now)))
	require.NoError(t, store.Save("beta", NewEntry("beta", testTokenSet(now), now)))

	require.NoError(t, store.Delete("alpha"))
	require.NoError(t, store.Delete("alpha"), "deleting an absent entry is not an error")

	_, ok, err := store.Get("alpha")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear())
	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreOverwrite(t *testing.T) {
	store := NewFileStore(t.TempDir())
	now := time.Now()

	first := testTokenSet(now)
	require.NoError(t, store.Save("key", NewEntry("key", first, now)))

	second := testTokenSet(now)
	second.AccessToken = "at-2"
	require.NoError(t, store.Save("key", NewEntry("key", second, now)))

	entry, ok, err := store.Get("key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "at-2", entry.AccessToken)

	entries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
