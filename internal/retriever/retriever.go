// Package retriever implements the query side of the index: embed a
// query string, run a filtered nearest-neighbor search, and hydrate each
// hit's surrounding block/focus text from the checkout on disk.
//
// Grounded on the reference implementation's Retriever class
// (original_source/server/services/git_aware_code_indexer.py, ~line 971):
// the same is_latest+branch AND-filter with optional repo/stack_type/
// component_type/screen_name/tags-as-ANY-of conditions, and the same
// "hydration failure never fails the query" behavior.
package retriever

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sevigo/coderadar/internal/chunk"
	"github.com/sevigo/coderadar/internal/vectorstore"
)

// Embedder embeds a single query string into a vector, the subset of
// embedclient.Client's contract the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// RepoPathResolver maps a repo id to its checkout directory on disk, so
// hits can be hydrated with source text. internal/registry.Discovery
// satisfies this.
type RepoPathResolver interface {
	ResolveRepoPath(repoID string) (string, error)
}

// Query is the full set of AND-filters the retriever's search supports,
// mirroring the Retriever.search keyword arguments.
type Query struct {
	Text          string
	K             int
	Branch        string
	Repo          string
	StackType     string
	ComponentType string
	ScreenName    string
	Tags          []string
}

// Hit is one scored, optionally hydrated search result.
type Hit struct {
	ID         string
	Score      float32
	Payload    map[string]any
	BlockText  string
	FocusText  string
	Hydrated   bool
}

// Retriever answers search queries against one Qdrant collection.
type Retriever struct {
	store    *vectorstore.Store
	embed    Embedder
	resolver RepoPathResolver
}

// New builds a Retriever. resolver may be nil to disable disk hydration
// entirely (e.g. when only payload metadata is needed).
func New(store *vectorstore.Store, embed Embedder, resolver RepoPathResolver) *Retriever {
	return &Retriever{store: store, embed: embed, resolver: resolver}
}

const defaultK = 5

// Search embeds q.Text, runs the filtered vector search, and hydrates
// each hit's block_text/focus_text from disk when the repo's checkout
// path is resolvable and the payload carries block line ranges. A
// hydration failure for one hit leaves its text empty and is never
// returned as an error — matching the reference implementation's bare except.
func (r *Retriever) Search(ctx context.Context, q Query) ([]Hit, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("retriever: empty query text")
	}
	k := q.K
	if k <= 0 {
		k = defaultK
	}
	branch := q.Branch
	if branch == "" {
		branch = "main"
	}

	vectors, err := r.embed.Embed(ctx, []string{q.Text})
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("retriever: embedder returned no vector")
	}

	filter := vectorstore.Filter{
		Match: map[string]string{
			"branch": branch,
		},
		MatchBool: map[string]bool{
			"is_latest": true,
		},
	}
	if q.Repo != "" {
		filter.Match["repo"] = q.Repo
	}
	if q.StackType != "" {
		filter.Match["stack_type"] = q.StackType
	}
	if q.ComponentType != "" {
		filter.Match["component_type"] = q.ComponentType
	}
	if q.ScreenName != "" {
		filter.Match["screen_name"] = q.ScreenName
	}
	if len(q.Tags) > 0 {
		filter.AnyTags = q.Tags
	}

	results, err := r.store.Search(ctx, vectors[0], uint64(k), filter)
	if err != nil {
		return nil, fmt.Errorf("retriever: search: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		hit := Hit{ID: res.ID, Score: res.Score, Payload: res.Payload}
		r.hydrate(&hit)
		hits = append(hits, hit)
	}
	return hits, nil
}

// hydrate fills BlockText/FocusText from the on-disk checkout, leaving
// them empty on any failure (missing resolver, missing file, missing
// line fields) rather than propagating an error.
func (r *Retriever) hydrate(hit *Hit) {
	if r.resolver == nil {
		return
	}
	payload := hit.Payload
	repoID, _ := payload["repo_id"].(string)
	path, _ := payload["path"].(string)
	if repoID == "" || path == "" {
		return
	}
	blockStart, okBS := asInt(payload["block_start_line"])
	blockEnd, okBE := asInt(payload["block_end_line"])
	if !okBS || !okBE {
		return
	}

	repoPath, err := r.resolver.ResolveRepoPath(repoID)
	if err != nil {
		return
	}
	raw, err := os.ReadFile(filepath.Join(repoPath, path))
	if err != nil {
		return
	}

	if bs, be := chunk.ByteRangeForLines(raw, blockStart, blockEnd); bs <= be && be <= len(raw) {
		hit.BlockText = string(raw[bs:be])
		hit.Hydrated = true
	}
	if startLine, okS := asInt(payload["start_line"]); okS {
		if endLine, okE := asInt(payload["end_line"]); okE {
			if fs, fe := chunk.ByteRangeForLines(raw, startLine, endLine); fs <= fe && fe <= len(raw) {
				hit.FocusText = string(raw[fs:fe])
			}
		}
	}
}

// ExpandWithCallGraph widens a result set by following each hit's stored
// call/navigation edges one hop and pulling in whatever chunk defines
// the edge's target symbol, within the same repo and branch. This has no
// equivalent in the reference implementation: it is a supplemented
// feature built on the edges the Android stack plugin (and any future
// stack plugin) already attaches to chunk payloads, so a search for "the
// function that handles X" also surfaces what X calls or navigates to.
//
// Already-present logical_ids (by the hit's own logical_id) are skipped,
// and the walk never repeats a target symbol twice across the whole
// expansion, bounding the fan-out from a single hit with many edges.
func (r *Retriever) ExpandWithCallGraph(ctx context.Context, hits []Hit, maxExtra int) ([]Hit, error) {
	if maxExtra <= 0 {
		return hits, nil
	}
	seenLogical := make(map[string]bool, len(hits))
	for _, h := range hits {
		if id, _ := h.Payload["logical_id"].(string); id != "" {
			seenLogical[id] = true
		}
	}

	seenTarget := make(map[string]bool)
	extra := make([]Hit, 0, maxExtra)
	for _, h := range hits {
		if len(extra) >= maxExtra {
			break
		}
		repoID, _ := h.Payload["repo_id"].(string)
		branch, _ := h.Payload["branch"].(string)
		for _, target := range edgeTargets(h.Payload["edges"]) {
			if len(extra) >= maxExtra {
				break
			}
			if seenTarget[target] {
				continue
			}
			seenTarget[target] = true

			results, err := r.store.ScrollByFilter(ctx, vectorstore.Filter{
				Match: map[string]string{
					"repo":   repoID,
					"branch": branch,
					"symbol": target,
				},
				MatchBool: map[string]bool{"is_latest": true},
			}, 1)
			if err != nil {
				return nil, fmt.Errorf("retriever: expand call graph for %q: %w", target, err)
			}
			for _, res := range results {
				id, _ := res.Payload["logical_id"].(string)
				if id != "" && seenLogical[id] {
					continue
				}
				seenLogical[id] = true
				hit := Hit{ID: res.ID, Score: res.Score, Payload: res.Payload}
				r.hydrate(&hit)
				extra = append(extra, hit)
			}
		}
	}
	return append(hits, extra...), nil
}

// edgeTargets pulls the "target" field out of a payload's stored edges
// list, tolerating both map[string]any (json roundtrip) and the
// vectorstore.BasePayload-native shape.
func edgeTargets(raw any) []string {
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case []map[string]any:
		for _, m := range v {
			list = append(list, m)
		}
	default:
		return nil
	}
	targets := make([]string, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if target, ok := m["target"].(string); ok && target != "" {
			targets = append(targets, target)
		}
	}
	return targets
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
