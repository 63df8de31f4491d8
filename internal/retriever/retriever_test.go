package retriever

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	root string
	err  error
}

func (f fakeResolver) ResolveRepoPath(repoID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.root, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestHydrateFillsBlockAndFocusText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")

	r := New(nil, nil, fakeResolver{root: dir})
	hit := Hit{Payload: map[string]any{
		"repo_id":          "repo1",
		"path":             "main.go",
		"block_start_line": 3,
		"block_end_line":   5,
		"start_line":       4,
		"end_line":         4,
	}}
	r.hydrate(&hit)

	assert.True(t, hit.Hydrated)
	assert.Contains(t, hit.BlockText, "func main()")
	assert.Contains(t, hit.FocusText, "println")
}

func TestHydrateNoResolverLeavesHitEmpty(t *testing.T) {
	r := New(nil, nil, nil)
	hit := Hit{Payload: map[string]any{"repo_id": "repo1", "path": "main.go", "block_start_line": 1, "block_end_line": 2}}
	r.hydrate(&hit)
	assert.False(t, hit.Hydrated)
	assert.Empty(t, hit.BlockText)
}

func TestHydrateMissingFileDoesNotError(t *testing.T) {
	r := New(nil, nil, fakeResolver{root: t.TempDir()})
	hit := Hit{Payload: map[string]any{"repo_id": "repo1", "path": "missing.go", "block_start_line": 1, "block_end_line": 2}}
	r.hydrate(&hit)
	assert.False(t, hit.Hydrated)
}

func TestHydrateMissingLineFieldsSkips(t *testing.T) {
	r := New(nil, nil, fakeResolver{root: t.TempDir()})
	hit := Hit{Payload: map[string]any{"repo_id": "repo1", "path": "main.go"}}
	r.hydrate(&hit)
	assert.False(t, hit.Hydrated)
}

func TestEdgeTargetsExtractsTargetStrings(t *testing.T) {
	edges := []any{
		map[string]any{"type": "CALLS", "target": "func:DoWork"},
		map[string]any{"type": "NAVIGATES_TO", "target": "screen:Details"},
		map[string]any{"type": "CALLS"}, // missing target, skipped
	}
	targets := edgeTargets(edges)
	assert.ElementsMatch(t, []string{"func:DoWork", "screen:Details"}, targets)
}

func TestEdgeTargetsNilIsEmpty(t *testing.T) {
	assert.Empty(t, edgeTargets(nil))
	assert.Empty(t, edgeTargets("not-a-list"))
}
