package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "repo-a", ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "repo-b", ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-repo"), 0o755))
	return root
}

func TestListRepositoriesFindsGitCheckoutsOnly(t *testing.T) {
	d, err := NewDiscovery(setupRepos(t))
	require.NoError(t, err)

	repos, err := d.ListRepositories()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"repo-a", "repo-b"}, repos)
}

func TestResolveRepoPathRejectsTraversal(t *testing.T) {
	d, err := NewDiscovery(setupRepos(t))
	require.NoError(t, err)

	_, err = d.ResolveRepoPath("../escape")
	assert.Error(t, err)

	_, err = d.ResolveRepoPath("not-a-repo")
	assert.Error(t, err)

	path, err := d.ResolveRepoPath("repo-a")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
}

func TestListRepositoriesMissingRootIsEmptyNotError(t *testing.T) {
	d, err := NewDiscovery(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)

	repos, err := d.ListRepositories()
	require.NoError(t, err)
	assert.Empty(t, repos)
}
