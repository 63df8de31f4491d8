package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sevigo/coderadar/internal/chunk"
	"github.com/sevigo/coderadar/internal/gitgateway"
	"github.com/sevigo/coderadar/internal/indexer"
	"github.com/sevigo/coderadar/internal/registry"
	"github.com/sevigo/coderadar/internal/stackplugins"
)

// ndjsonWriter streams indexer.Event values as newline-delimited JSON,
// flushing after every line so a client sees progress as it happens —
// the Go equivalent of the reference implementation's StreamingResponse
// generator.
type ndjsonWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newNDJSONWriter(w http.ResponseWriter) ndjsonWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	return ndjsonWriter{w: w, flusher: flusher}
}

func (n ndjsonWriter) emit(ev indexer.Event) {
	_ = json.NewEncoder(n.w).Encode(ev)
	if n.flusher != nil {
		n.flusher.Flush()
	}
}

// buildIndexer wires an Indexer for repoID: resolves its registry entry
// (creating one with defaults on first use), opens its git checkout, and
// resolves its embedding/vector-store clients and stack plugins.
func (h *Handler) buildIndexer(ctx context.Context, repoID, stackTypeOverride string) (*indexer.Indexer, *registry.RepoEntry, *gitgateway.Gateway, error) {
	repoEntry, err := h.deps.Registry.EnsureRepo(ctx, repoID, h.defaultRepoEntry(repoID, stackTypeOverride))
	if err != nil {
		return nil, nil, nil, err
	}
	if stackTypeOverride != "" && repoEntry.StackType != stackTypeOverride {
		repoEntry, err = h.deps.Registry.UpdateStackType(ctx, repoID, stackTypeOverride)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	if repoEntry.Archived {
		return nil, nil, nil, fmt.Errorf("repository '%s' is archived", repoID)
	}

	stackType := stackTypeOverride
	if stackType == "" {
		stackType = repoEntry.StackType
	}

	if h.deps.StateCache != nil {
		if err := h.deps.StateCache.Sync(repoID, repoEntry.LastIndexedCommit); err != nil {
			h.logger().Warn("state cache sync failed", "repo_id", repoID, "error", err)
		}
	}

	repoPath, err := h.deps.Discovery.ResolveRepoPath(repoID)
	if err != nil {
		return nil, nil, nil, err
	}
	gw, err := h.deps.OpenGateway(ctx, repoPath)
	if err != nil {
		return nil, nil, nil, err
	}

	emb, store, err := h.deps.Initializer.ResolveClients(ctx, repoEntry.CollectionName, repoEntry.EmbeddingModel)
	if err != nil {
		return nil, nil, nil, err
	}

	chunkPlugins, payloadPlugins, basePayload := stackplugins.Resolve(stackType)

	ix := &indexer.Indexer{
		RepoID:         repoID,
		RepoName:       repoID,
		Gateway:        gw,
		Embed:          emb,
		Store:          store,
		Chunker:        chunk.New(chunk.Options{LineWindow: h.deps.Config.Chunk.LineWindow, MaxChars: h.deps.Config.Chunk.MaxChars()}),
		StackType:      stackType,
		ChunkPlugins:   chunkPlugins,
		PayloadPlugins: payloadPlugins,
		BasePayload:    basePayload,
		Recorder:       registry.NewRecorder(h.deps.Registry, h.deps.StateCache),
	}
	return ix, repoEntry, gw, nil
}

// FullIndex answers POST /repos/{repo_id}/index/full, streaming NDJSON
// progress events while re-indexing every file at HEAD.
func (h *Handler) FullIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	repoID := repoIDParam(r)
	stackType := r.URL.Query().Get("stack_type")

	ix, _, gw, err := h.buildIndexer(ctx, repoID, stackType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	head, err := gw.Head(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stream := newNDJSONWriter(w)
	branch := h.deps.Config.Repos.DefaultBranch
	_ = ix.FullIndex(ctx, head, branch, stream.emit)
}

// UpdateIndex answers POST /repos/{repo_id}/index/update, streaming
// NDJSON progress events while indexing the delta since the last
// indexed commit (or, when HEAD hasn't moved, the working tree's local
// changes against it).
func (h *Handler) UpdateIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	repoID := repoIDParam(r)
	stackType := r.URL.Query().Get("stack_type")

	ix, repoEntry, gw, err := h.buildIndexer(ctx, repoID, stackType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	base := repoEntry.LastIndexedCommit
	if base == "" && h.deps.StateCache != nil {
		if sha, ok, _ := h.deps.StateCache.Get(repoID); ok {
			base = sha
		}
	}
	if base == "" {
		writeError(w, http.StatusBadRequest, "no base commit found; run full index first")
		return
	}

	head, err := gw.Head(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stream := newNDJSONWriter(w)
	branch := h.deps.Config.Repos.DefaultBranch
	commitHead := head
	if base == head {
		commitHead = "" // working-tree mode, per IndexCommit's convention
	}
	_ = ix.IndexCommit(ctx, base, commitHead, branch, stream.emit)
}
