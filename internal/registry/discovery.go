package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Discovery lists and resolves on-disk git checkouts under one root
// directory, independent of whatever rows happen to exist in Postgres —
// SPEC_FULL.md's SUPPLEMENTED FEATURES section calls this out explicitly so
// GET /repos can enumerate repos the registry hasn't seen yet.
//
// Grounded on original_source/server/services/state_manager.py's
// list_git_repositories/get_repo_path.
type Discovery struct {
	root string
}

// NewDiscovery points a Discovery at reposRoot, resolved to an absolute
// path so later containment checks are reliable.
func NewDiscovery(reposRoot string) (*Discovery, error) {
	abs, err := filepath.Abs(reposRoot)
	if err != nil {
		return nil, fmt.Errorf("registry: resolve repos root %q: %w", reposRoot, err)
	}
	return &Discovery{root: abs}, nil
}

// ListRepositories returns the repo_id (directory name) of every
// immediate subdirectory of the root that contains a .git entry.
func (d *Discovery) ListRepositories() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("registry: list repos under %q: %w", d.root, err)
	}
	var repos []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(d.root, entry.Name(), ".git")); err == nil {
			repos = append(repos, entry.Name())
		}
	}
	return repos, nil
}

// ResolveRepoPath maps a repo_id to its checkout directory, rejecting
// ids that would escape the root (path separators, "." or "..") and ids
// that don't name an actual git checkout. Symlinks are not resolved: a
// symlinked directory under the root is accepted wherever it points.
func (d *Discovery) ResolveRepoPath(repoID string) (string, error) {
	if repoID == "" || strings.ContainsAny(repoID, "/\\") || repoID == "." || repoID == ".." {
		return "", fmt.Errorf("registry: invalid repo id %q", repoID)
	}
	candidate := filepath.Join(d.root, repoID)
	if !strings.HasPrefix(candidate, d.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("registry: repo id %q escapes repos root", repoID)
	}
	if _, err := os.Stat(filepath.Join(candidate, ".git")); err != nil {
		return "", fmt.Errorf("registry: invalid repo %q: not a git checkout", repoID)
	}
	return candidate, nil
}
