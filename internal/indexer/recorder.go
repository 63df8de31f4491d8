package indexer

import "context"

// Recorder persists per-repo run status transitions
// (idle -> running -> completed|noop|error) plus the advisory progress
// sub-state (processing, current file, counts) and the last_indexed_commit
// cache. internal/registry implements this against the database and the
// local JSON state-file mirror; the indexer itself holds no storage beyond
// the vector store.
type Recorder interface {
	MarkRunning(ctx context.Context, repoID, mode string) error
	MarkProgress(ctx context.Context, repoID string, processedFiles, totalFiles int, currentFile string) error
	MarkCompleted(ctx context.Context, repoID, lastIndexedCommit string) error
	MarkNoop(ctx context.Context, repoID string) error
	MarkError(ctx context.Context, repoID string, cause error) error
}

type noopRecorder struct{}

func (noopRecorder) MarkRunning(context.Context, string, string) error               { return nil }
func (noopRecorder) MarkProgress(context.Context, string, int, int, string) error    { return nil }
func (noopRecorder) MarkCompleted(context.Context, string, string) error             { return nil }
func (noopRecorder) MarkNoop(context.Context, string) error                          { return nil }
func (noopRecorder) MarkError(context.Context, string, error) error                  { return nil }
