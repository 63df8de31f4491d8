// Package indexer drives the diff-aware chunk/embed/upsert pipeline: full
// re-indexing of a ref, and incremental indexing of either a commit range
// or the working tree against a base commit.
//
// Grounded on the reference implementation's Indexer class
// (original_source/server/services/git_aware_code_indexer.py): the same
// full_index/index_commit split, the same per-chunk
// new/changed/position-only classification, and the same
// demote-then-upsert ordering. Deleted-file handling follows spec.md §4.8
// rather than the reference implementation, which leaves a deleted file's
// points undemoted — here every logical_id still marked latest in a
// deleted file's re-chunked base source is explicitly demoted.
package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sevigo/coderadar/internal/chunk"
	"github.com/sevigo/coderadar/internal/diffmodel"
	"github.com/sevigo/coderadar/internal/embedclient"
	"github.com/sevigo/coderadar/internal/gitgateway"
	"github.com/sevigo/coderadar/internal/payload"
	"github.com/sevigo/coderadar/internal/relocalize"
	"github.com/sevigo/coderadar/internal/vectorstore"
)

// Indexer runs indexing operations for one repository.
type Indexer struct {
	RepoID   string
	RepoName string

	Gateway *gitgateway.Gateway
	Embed   *embedclient.Client
	Store   *vectorstore.Store
	Chunker *chunk.Chunker

	StackType      string
	ChunkPlugins   []chunk.Plugin
	PayloadPlugins []payload.Plugin
	BasePayload    map[string]any

	Recorder Recorder
}

func (ix *Indexer) recorder() Recorder {
	if ix.Recorder != nil {
		return ix.Recorder
	}
	return noopRecorder{}
}

// chunkFile produces the chunks for one file's content, applying the
// stack's chunk plugin if one supports the path.
func (ix *Indexer) chunkFile(src []byte, path string) ([]chunk.Chunk, error) {
	return ix.Chunker.Chunks(src, path, ix.RepoID, ix.StackType, ix.ChunkPlugins)
}

func (ix *Indexer) payloadPlugin() payload.Plugin {
	for _, p := range ix.PayloadPlugins {
		if p.StackType() == ix.StackType {
			return p
		}
	}
	return nil
}

// buildPayload assembles one chunk's full Qdrant payload: the stable base
// fields, caller-supplied base_payload overrides, and stack-plugin
// enrichment.
func (ix *Indexer) buildPayload(c chunk.Chunk, branch, commitSHA string, isLatest bool) map[string]any {
	if pp := ix.payloadPlugin(); pp != nil {
		c = payload.Apply(c, pp.BuildPayload(c, branch, commitSHA))
	}
	p := vectorstore.BasePayload(c, ix.RepoName, branch, commitSHA, isLatest)
	for k, v := range ix.BasePayload {
		p[k] = v
	}
	return p
}

// embedAndUpsert embeds chunks' content and upserts one point per chunk,
// demoting any existing latest point for the same logical_id first.
func (ix *Indexer) embedAndUpsert(ctx context.Context, chunks []chunk.Chunk, branch, commitSHA string) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ix.Embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunk(s): %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding client returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]vectorstore.Point, 0, len(chunks))
	for i, c := range chunks {
		if err := ix.demoteLatest(ctx, c.LogicalID); err != nil {
			return err
		}
		pointID := vectorstore.PointID(c.LogicalID, c.ContentHash)
		points = append(points, vectorstore.Point{
			ID:      pointID,
			Vector:  vectors[i],
			Payload: ix.buildPayload(c, branch, commitSHA, true),
		})
	}
	return ix.Store.UpsertPoints(ctx, points, 0)
}

func (ix *Indexer) demoteLatest(ctx context.Context, logicalID string) error {
	isLatest := true
	prior, err := ix.Store.ScrollByLogical(ctx, logicalID, &isLatest)
	if err != nil {
		return fmt.Errorf("scroll_by_logical %q: %w", logicalID, err)
	}
	if len(prior) == 0 {
		return nil
	}
	ids := make([]string, len(prior))
	for i, p := range prior {
		ids[i] = p.ID
	}
	return ix.Store.SetPayload(ctx, ids, map[string]any{"is_latest": false})
}

// FullIndex re-chunks and re-embeds every file at head, marking every
// resulting point is_latest=true. It demotes any prior latest point for a
// logical_id before upserting, so a repeated full index of unchanged
// content is a no-op thanks to deterministic point ids.
func (ix *Indexer) FullIndex(ctx context.Context, head, branch string, progress Progress) error {
	if progress == nil {
		progress = noopProgress
	}
	if err := ix.recorder().MarkRunning(ctx, ix.RepoID, "full"); err != nil {
		return err
	}
	progress(Event{Kind: EventStarted})

	files, err := ix.Gateway.ListFiles(ctx, head)
	if err != nil {
		_ = ix.recorder().MarkError(ctx, ix.RepoID, err)
		progress(Event{Kind: EventError, Message: err.Error()})
		return err
	}

	for i, path := range files {
		src, ok, err := ix.Gateway.ShowFile(ctx, head, path)
		if err != nil {
			_ = ix.recorder().MarkError(ctx, ix.RepoID, err)
			progress(Event{Kind: EventError, Message: err.Error()})
			return err
		}
		if ok {
			chunks, err := ix.chunkFile([]byte(src), path)
			if err != nil {
				_ = ix.recorder().MarkError(ctx, ix.RepoID, err)
				progress(Event{Kind: EventError, Message: err.Error()})
				return err
			}
			if err := ix.embedAndUpsert(ctx, chunks, branch, head); err != nil {
				_ = ix.recorder().MarkError(ctx, ix.RepoID, err)
				progress(Event{Kind: EventError, Message: err.Error()})
				return err
			}
		}
		_ = ix.recorder().MarkProgress(ctx, ix.RepoID, i+1, len(files), path)
		progress(Event{Kind: EventProcessing, File: path, ProcessedFiles: i + 1, TotalFiles: len(files)})
	}

	if err := ix.recorder().MarkCompleted(ctx, ix.RepoID, head); err != nil {
		return err
	}
	progress(Event{Kind: EventCompleted, LastCommit: head})
	return nil
}

// statusLetters are the porcelain status columns that mean "this path
// changed", mirroring the reference implementation's STATUS_LETTERS set.
var statusLetters = map[byte]bool{'M': true, 'A': true, 'D': true, 'R': true, 'C': true, 'U': true, 'T': true}

func changedPathsFromPorcelain(status string) []string {
	var paths []string
	for _, line := range strings.Split(status, "\n") {
		if len(line) < 3 {
			continue
		}
		if statusLetters[line[0]] || statusLetters[line[1]] {
			paths = append(paths, strings.TrimSpace(line[3:]))
		}
	}
	return paths
}

// IndexCommit runs the incremental algorithm: commit-range mode when head
// is non-empty, working-tree mode when head is "".
func (ix *Indexer) IndexCommit(ctx context.Context, base, head, branch string, progress Progress) error {
	if progress == nil {
		progress = noopProgress
	}
	mode := "commit"
	if head == "" {
		mode = "working-tree"
	}
	if err := ix.recorder().MarkRunning(ctx, ix.RepoID, mode); err != nil {
		return err
	}
	progress(Event{Kind: EventStarted})

	commitSHA := head
	if commitSHA == "" {
		commitSHA = base
	}

	var diffText string
	var err error
	if head == "" {
		status, statusErr := ix.Gateway.StatusPorcelain(ctx)
		if statusErr != nil {
			return ix.fail(ctx, progress, statusErr)
		}
		paths := changedPathsFromPorcelain(status)
		if len(paths) == 0 {
			return ix.noop(ctx, progress)
		}
		diffText, err = ix.Gateway.DiffToWorking(ctx, base, paths)
	} else {
		diffText, err = ix.Gateway.DiffUnifiedZero(ctx, base, head)
	}
	if err != nil {
		return ix.fail(ctx, progress, err)
	}

	fileDiffs := diffmodel.ParseUnifiedDiff(diffText)
	if len(fileDiffs) == 0 {
		return ix.noop(ctx, progress)
	}

	for i, fd := range fileDiffs {
		if fd.IsDeleted {
			if err := ix.handleDeletedFile(ctx, base, fd, progress); err != nil {
				return ix.fail(ctx, progress, err)
			}
			_ = ix.recorder().MarkProgress(ctx, ix.RepoID, i+1, len(fileDiffs), fd.Path)
			progress(Event{Kind: EventProcessing, File: fd.Path, ProcessedFiles: i + 1, TotalFiles: len(fileDiffs)})
			continue
		}
		if err := ix.handleChangedFile(ctx, base, head, branch, commitSHA, fd); err != nil {
			return ix.fail(ctx, progress, err)
		}
		_ = ix.recorder().MarkProgress(ctx, ix.RepoID, i+1, len(fileDiffs), fd.Path)
		progress(Event{Kind: EventProcessing, File: fd.Path, ProcessedFiles: i + 1, TotalFiles: len(fileDiffs)})
	}

	if head != "" {
		if err := ix.recorder().MarkCompleted(ctx, ix.RepoID, head); err != nil {
			return err
		}
	}
	progress(Event{Kind: EventCompleted, LastCommit: commitSHA})
	return nil
}

func (ix *Indexer) fail(ctx context.Context, progress Progress, err error) error {
	_ = ix.recorder().MarkError(ctx, ix.RepoID, err)
	progress(Event{Kind: EventError, Message: err.Error()})
	return err
}

func (ix *Indexer) noop(ctx context.Context, progress Progress) error {
	if err := ix.recorder().MarkNoop(ctx, ix.RepoID); err != nil {
		return err
	}
	progress(Event{Kind: EventNoop})
	return nil
}

// handleDeletedFile re-chunks the file as it existed at base, then demotes
// every logical_id that is still marked latest, per spec.md §4.8.
func (ix *Indexer) handleDeletedFile(ctx context.Context, base string, fd diffmodel.FileDiff, progress Progress) error {
	baseSrc, ok, err := ix.Gateway.ShowFile(ctx, base, fd.Path)
	if err != nil {
		return err
	}
	if !ok {
		progress(Event{Kind: EventRemoved, File: fd.Path})
		return nil
	}
	chunks, err := ix.chunkFile([]byte(baseSrc), fd.Path)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if err := ix.demoteLatest(ctx, c.LogicalID); err != nil {
			return err
		}
	}
	progress(Event{Kind: EventRemoved, File: fd.Path})
	return nil
}

// handleChangedFile classifies every chunk in a changed file as new,
// changed, or position-only, and applies the corresponding store mutation.
func (ix *Indexer) handleChangedFile(ctx context.Context, base, head, branch, commitSHA string, fd diffmodel.FileDiff) error {
	headSrc, ok, err := ix.Gateway.ShowFile(ctx, head, fd.Path)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	headChunks, err := ix.chunkFile([]byte(headSrc), fd.Path)
	if err != nil {
		return err
	}

	baseSrc, _, err := ix.Gateway.ShowFile(ctx, base, fd.Path)
	if err != nil {
		return err
	}

	var toEmbed []chunk.Chunk
	type positionUpdate struct {
		logicalID string
		r         chunk.Range
	}
	var toUpdatePosition []positionUpdate

	for _, c := range headChunks {
		isLatest := true
		prior, err := ix.Store.ScrollByLogical(ctx, c.LogicalID, &isLatest)
		if err != nil {
			return fmt.Errorf("scroll_by_logical %q: %w", c.LogicalID, err)
		}
		if len(prior) == 0 {
			toEmbed = append(toEmbed, c)
			continue
		}

		prevContentHash, _ := prior[0].Payload["content_hash"].(string)
		if prevContentHash != c.ContentHash {
			toEmbed = append(toEmbed, c)
			continue
		}

		translated := diffmodel.Translate(c.Range, fd.Hunks)
		if translated.Relocalize && baseSrc != "" {
			if baseSlice, ok := byteRangeFromPayload(prior[0].Payload, baseSrc); ok {
				if r, found := relocalize.Relocate([]byte(baseSlice), []byte(headSrc)); found {
					translated = r
				}
			}
		}
		if translated.Relocalize {
			toEmbed = append(toEmbed, c)
			continue
		}
		toUpdatePosition = append(toUpdatePosition, positionUpdate{logicalID: c.LogicalID, r: translated})
	}

	if err := ix.embedAndUpsert(ctx, toEmbed, branch, commitSHA); err != nil {
		return err
	}

	for _, u := range toUpdatePosition {
		isLatest := true
		prior, err := ix.Store.ScrollByLogical(ctx, u.logicalID, &isLatest)
		if err != nil {
			return fmt.Errorf("scroll_by_logical %q: %w", u.logicalID, err)
		}
		ids := make([]string, len(prior))
		for i, p := range prior {
			ids[i] = p.ID
		}
		if len(ids) == 0 {
			continue
		}
		if err := ix.Store.SetPayload(ctx, ids, map[string]any{
			"start_line": u.r.StartLine,
			"end_line":   u.r.EndLine,
		}); err != nil {
			return fmt.Errorf("set_payload position for %q: %w", u.logicalID, err)
		}
	}
	return nil
}

// byteRangeFromPayload recovers the previous byte-slice from a stored
// point's payload so it can be used as the relocalization probe.
func byteRangeFromPayload(p map[string]any, src string) (string, bool) {
	start, sok := asInt(p["byte_start"])
	end, eok := asInt(p["byte_end"])
	if !sok || !eok || start < 0 || end > len(src) || start > end {
		return "", false
	}
	return src[start:end], true
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
