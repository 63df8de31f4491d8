// Package gitrepo manages the on-disk lifecycle of indexed repositories:
// cloning a remote into the repos root directory, fetching updates, and
// checking out a branch. internal/gitgateway takes over once a checkout
// exists, for the read-only diff/show/list operations the indexer needs.
//
// Adapted from the teacher's internal/gitutil/cloner.go Client — same
// go-git/v5 operations, generalized from GitHub-App-token cloning to
// optional-token cloning of any registered repository.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Client manages clone/fetch/checkout for registered repositories.
type Client struct {
	Logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// Open opens an existing checkout at path.
func (c *Client) Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("gitrepo: open %s: %w", path, err)
	}
	return repo, nil
}

// Clone clones repoURL into path. token is optional; when empty the clone
// is attempted unauthenticated (for public repos or local file:// remotes).
func (c *Client) Clone(ctx context.Context, repoURL, path, token string) (*git.Repository, error) {
	cloneURL, err := c.authenticatedURL(repoURL, token)
	if err != nil {
		return nil, err
	}
	c.Logger.InfoContext(ctx, "cloning repository", "url", repoURL, "path", path)
	repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{URL: cloneURL})
	if err != nil {
		return nil, fmt.Errorf("gitrepo: clone %s to %s: %w", repoURL, path, err)
	}
	return repo, nil
}

// EnsureCheckout opens the repository at path if it exists, otherwise
// clones repoURL into it. Either way it returns an open *git.Repository.
func (c *Client) EnsureCheckout(ctx context.Context, repoURL, path, token string) (*git.Repository, error) {
	if repo, err := c.Open(path); err == nil {
		return repo, nil
	}
	return c.Clone(ctx, repoURL, path, token)
}

// Fetch fetches updates from origin, optionally restricted to refSpecs.
func (c *Client) Fetch(ctx context.Context, repo *git.Repository, token string, refSpecs ...string) error {
	opts := &git.FetchOptions{
		RemoteName: "origin",
		Auth:       c.basicAuth(token),
		Force:      true,
	}
	if len(refSpecs) > 0 {
		specs := make([]config.RefSpec, 0, len(refSpecs))
		for _, s := range refSpecs {
			specs = append(specs, config.RefSpec(s))
		}
		opts.RefSpecs = specs
	}
	if err := repo.FetchContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("gitrepo: fetch: %w", err)
	}
	return nil
}

// Checkout switches the worktree to branch, creating a local tracking
// branch from origin if one does not already exist.
func (c *Client) Checkout(repo *git.Repository, branch string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitrepo: worktree: %w", err)
	}
	ref := plumbing.NewBranchReferenceName(branch)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Force: true}); err == nil {
		return nil
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("gitrepo: resolve remote branch %s: %w", branch, err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(ref, remoteRef.Hash())); err != nil {
		return fmt.Errorf("gitrepo: create local branch %s: %w", branch, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Force: true}); err != nil {
		return fmt.Errorf("gitrepo: checkout %s: %w", branch, err)
	}
	return nil
}

// CheckoutSHA switches the worktree to an exact commit.
func (c *Client) CheckoutSHA(repo *git.Repository, sha string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitrepo: worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(sha), Force: true}); err != nil {
		return fmt.Errorf("gitrepo: checkout sha %s: %w", sha, err)
	}
	return nil
}

// RemoteHeadSHA resolves a remote branch's HEAD sha without cloning.
func (c *Client) RemoteHeadSHA(ctx context.Context, repoURL, branch, token string) (string, error) {
	authURL, err := c.authenticatedURL(repoURL, token)
	if err != nil {
		return "", err
	}
	ref := "refs/heads/" + branch
	out, err := exec.CommandContext(ctx, "git", "ls-remote", authURL, ref).Output()
	if err != nil {
		return "", fmt.Errorf("gitrepo: ls-remote %s: %w", branch, err)
	}
	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) == 0 {
		return "", fmt.Errorf("gitrepo: branch %q not found or repository is empty", branch)
	}
	return fields[0], nil
}

func (c *Client) authenticatedURL(repoURL, token string) (string, error) {
	if token == "" {
		return repoURL, nil
	}
	if !strings.HasPrefix(repoURL, "https://") && !strings.HasPrefix(repoURL, "http://") {
		return "", fmt.Errorf("gitrepo: token auth requires an http(s) URL, got %q", repoURL)
	}
	parsed, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("gitrepo: parse repo url %q: %w", repoURL, err)
	}
	parsed.User = url.UserPassword("x-access-token", token)
	return parsed.String(), nil
}

func (c *Client) basicAuth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: token}
}
