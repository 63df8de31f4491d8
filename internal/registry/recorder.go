package registry

import (
	"context"
	"errors"
	"time"

	"github.com/sevigo/coderadar/internal/indexer"
)

// recorderAdapter implements indexer.Recorder against a Store and a
// StateCache, fulfilling the run-status transitions
// original_source/server/services/repository_registry.py's
// update_index_status drives from Python, plus the state-file mirror
// sync that Python's index router calls alongside it.
type recorderAdapter struct {
	store Store
	cache *StateCache
}

// NewRecorder builds the indexer.Recorder the server wires into every
// Indexer. cache may be nil to skip the state-file mirror (e.g. in tests).
func NewRecorder(store Store, cache *StateCache) indexer.Recorder {
	return &recorderAdapter{store: store, cache: cache}
}

var _ indexer.Recorder = (*recorderAdapter)(nil)

func (r *recorderAdapter) MarkRunning(ctx context.Context, repoID, mode string) error {
	now := time.Now()
	return r.store.UpsertRunStatus(ctx, RunStatus{
		RepoID:    repoID,
		Mode:      mode,
		Status:    "running",
		StartedAt: &now,
	})
}

func (r *recorderAdapter) MarkProgress(ctx context.Context, repoID string, processedFiles, totalFiles int, currentFile string) error {
	status, err := r.store.GetRunStatus(ctx, repoID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	mode := ""
	started := (*time.Time)(nil)
	if status != nil {
		mode = status.Mode
		started = status.StartedAt
	}
	return r.store.UpsertRunStatus(ctx, RunStatus{
		RepoID:         repoID,
		Mode:           mode,
		Status:         "running",
		StartedAt:      started,
		TotalFiles:     totalFiles,
		ProcessedFiles: processedFiles,
		CurrentFile:    currentFile,
	})
}

func (r *recorderAdapter) MarkCompleted(ctx context.Context, repoID, lastIndexedCommit string) error {
	now := time.Now()
	if err := r.store.UpsertRunStatus(ctx, RunStatus{
		RepoID:     repoID,
		Status:     "completed",
		FinishedAt: &now,
	}); err != nil {
		return err
	}
	if err := r.store.SetLastIndexedCommit(ctx, repoID, lastIndexedCommit); err != nil {
		return err
	}
	if r.cache != nil {
		return r.cache.Sync(repoID, lastIndexedCommit)
	}
	return nil
}

func (r *recorderAdapter) MarkNoop(ctx context.Context, repoID string) error {
	now := time.Now()
	return r.store.UpsertRunStatus(ctx, RunStatus{
		RepoID:     repoID,
		Status:     "noop",
		FinishedAt: &now,
	})
}

func (r *recorderAdapter) MarkError(ctx context.Context, repoID string, cause error) error {
	now := time.Now()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.store.UpsertRunStatus(ctx, RunStatus{
		RepoID:     repoID,
		Status:     "error",
		FinishedAt: &now,
		LastError:  msg,
	})
}
