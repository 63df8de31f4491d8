package gitgateway

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initFixtureRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")

	return dir
}

func TestGatewayListFilesAndHead(t *testing.T) {
	dir := initFixtureRepo(t)
	g, err := Open(context.Background(), dir)
	require.NoError(t, err)

	files, err := g.ListFiles(context.Background(), "")
	require.NoError(t, err)
	require.Contains(t, files, "main.go")

	head, err := g.Head(context.Background())
	require.NoError(t, err)
	require.Len(t, head, 40)
}

func TestGatewayShowFileWorkingTreeAndCommit(t *testing.T) {
	dir := initFixtureRepo(t)
	g, err := Open(context.Background(), dir)
	require.NoError(t, err)

	content, ok, err := g.ShowFile(context.Background(), "", "main.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, content, "func main")

	head, err := g.Head(context.Background())
	require.NoError(t, err)
	content, ok, err = g.ShowFile(context.Background(), head, "main.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, content, "func main")
}

func TestGatewayShowFileMissingPathReturnsNotOK(t *testing.T) {
	dir := initFixtureRepo(t)
	g, err := Open(context.Background(), dir)
	require.NoError(t, err)

	_, ok, err := g.ShowFile(context.Background(), "", "missing.go")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGatewayDiffUnifiedZeroDetectsAddedLine(t *testing.T) {
	dir := initFixtureRepo(t)
	g, err := Open(context.Background(), dir)
	require.NoError(t, err)
	base, err := g.Head(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"), 0o644))
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("add", ".")
	run("commit", "-q", "-m", "update")
	head, err := g.Head(context.Background())
	require.NoError(t, err)

	diff, err := g.DiffUnifiedZero(context.Background(), base, head)
	require.NoError(t, err)
	require.Contains(t, diff, "@@")
}

func TestIsProbablyBinaryDetectsNulByte(t *testing.T) {
	require.True(t, isProbablyBinary([]byte{0x00, 'a', 'b'}, 8000, 0.3))
	require.False(t, isProbablyBinary([]byte("hello\nworld\n"), 8000, 0.3))
}
