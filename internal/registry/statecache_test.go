package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCacheLoadMissingFileReturnsEmptyMap(t *testing.T) {
	cache, err := NewStateCache(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	state, err := cache.Load()
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestStateCacheSyncThenGet(t *testing.T) {
	cache, err := NewStateCache(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.NoError(t, cache.Sync("repo1", "abc123"))

	sha, ok, err := cache.Get("repo1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", sha)
}

func TestStateCacheSyncIsNoopOnMatch(t *testing.T) {
	cache, err := NewStateCache(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.NoError(t, cache.Sync("repo1", "abc123"))
	before, err := cache.Load()
	require.NoError(t, err)

	require.NoError(t, cache.Sync("repo1", "abc123"))
	after, err := cache.Load()
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestStateCacheSyncIgnoresEmptyCommit(t *testing.T) {
	cache, err := NewStateCache(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.NoError(t, cache.Sync("repo1", ""))
	_, ok, err := cache.Get("repo1")
	require.NoError(t, err)
	assert.False(t, ok)
}
