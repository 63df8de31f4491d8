// Package vectorstore wraps the Qdrant point-level API the indexer needs:
// lazy collection creation, batched upsert, partial payload patches, filtered
// search, and scroll-by-logical-id lookups used to find a chunk's prior
// point before deciding new/changed/moved/unchanged.
//
// Grounded on the reference implementation's VectorStore
// (original_source/server/services/git_aware_code_indexer.py): the same
// get-or-create-collection probe, the same batched upsert loop, and the
// same scroll-by-logical_id filter shape. The teacher wraps Qdrant through
// github.com/sevigo/goframe's document-level vectorstores.VectorStore
// interface (internal/storage/vectorstore.go), which has no point-level
// upsert/set_payload/scroll — so this package talks to
// github.com/qdrant/go-client directly instead (see DESIGN.md).
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/sevigo/coderadar/internal/chunk"
)

// Point is the store-agnostic shape of one indexed chunk's vector record.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Store talks to one Qdrant collection.
type Store struct {
	client      *qdrant.Client
	collection  string
	upsertBatch int
}

// Config configures a Store's connection and, when the collection does not
// yet exist, its creation.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  uint64
	UpsertBatchSize int
}

// Open connects to Qdrant and ensures the configured collection exists,
// creating it with cosine distance when it is missing. A missing
// Dimension on a missing collection is an error: the caller must know the
// embedding size up front, exactly as the reference implementation
// requires a dim argument on first run.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect: %w", err)
	}

	exists, err := client.CollectionExists(ctx, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: check collection %q: %w", cfg.Collection, err)
	}
	if !exists {
		if cfg.Dimension == 0 {
			return nil, errors.New("vectorstore: collection does not exist and no dimension was provided to create it")
		}
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     cfg.Dimension,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("vectorstore: create collection %q: %w", cfg.Collection, err)
		}
	}

	return &Store{client: client, collection: cfg.Collection, upsertBatch: cfg.UpsertBatchSize}, nil
}

const defaultUpsertBatch = 256

// UpsertPoints writes points in batches of batchSize (falling back to the
// Store's configured UpsertBatchSize, then to 256, when <= 0), matching
// the reference implementation's batched upsert loop.
func (s *Store) UpsertPoints(ctx context.Context, points []Point, batchSize int) error {
	if batchSize <= 0 {
		batchSize = s.upsertBatch
	}
	if batchSize <= 0 {
		batchSize = defaultUpsertBatch
	}
	for start := 0; start < len(points); start += batchSize {
		end := min(start+batchSize, len(points))
		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			batch = append(batch, &qdrant.PointStruct{
				Id:      qdrant.NewID(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(p.Payload),
			})
		}
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         batch,
		})
		if err != nil {
			return fmt.Errorf("vectorstore: upsert batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// SetPayload patches payload fields on the given point ids without
// touching their vectors, used to flip is_latest on a prior point during
// demote-then-upsert.
func (s *Store) SetPayload(ctx context.Context, pointIDs []string, payload map[string]any) error {
	if len(pointIDs) == 0 {
		return nil
	}
	ids := make([]*qdrant.PointId, 0, len(pointIDs))
	for _, id := range pointIDs {
		ids = append(ids, qdrant.NewID(id))
	}
	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.collection,
		Payload:        qdrant.NewValueMap(payload),
		PointsSelector: qdrant.NewPointsSelectorIDs(ids),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: set_payload on %d point(s): %w", len(pointIDs), err)
	}
	return nil
}

// SearchResult is one scored hit from Search.
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Filter narrows a Search call. Match entries become exact-value string
// AND conditions, MatchBool entries exact-value bool AND conditions, and
// AnyTags, when non-empty, becomes a single "tags intersects any of
// these" condition — the retriever's tags-as-ANY-of requirement, which a
// plain exact-match map cannot express.
type Filter struct {
	Match     map[string]string
	MatchBool map[string]bool
	AnyTags   []string
}

// Search runs a filtered nearest-neighbor query, translating the spec's
// repo/branch/path/stack/tags filters into Qdrant field-match conditions.
func (s *Store) Search(ctx context.Context, query []float32, limit uint64, filter Filter) ([]SearchResult, error) {
	var qFilter *qdrant.Filter
	conds := make([]*qdrant.Condition, 0, len(filter.Match)+len(filter.MatchBool)+1)
	for k, v := range filter.Match {
		conds = append(conds, qdrant.NewMatch(k, v))
	}
	for k, v := range filter.MatchBool {
		conds = append(conds, qdrant.NewMatchBool(k, v))
	}
	if len(filter.AnyTags) > 0 {
		conds = append(conds, qdrant.NewMatchKeywords("tags", filter.AnyTags...))
	}
	if len(conds) > 0 {
		qFilter = &qdrant.Filter{Must: conds}
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         qFilter,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	out := make([]SearchResult, 0, len(points))
	for _, p := range points {
		out = append(out, SearchResult{
			ID:      pointIDString(p.GetId()),
			Score:   p.GetScore(),
			Payload: qdrant.NewValueMapFromPayload(p.GetPayload()),
		})
	}
	return out, nil
}

// ScrollByLogical returns every stored point for a logical_id, optionally
// restricted to is_latest, mirroring scroll_by_logical. There is normally
// at most one is_latest=true point per (repo, branch, logical_id); this
// can still surface more than one during a race, which callers must
// reconcile by demoting all but the newest.
func (s *Store) ScrollByLogical(ctx context.Context, logicalID string, isLatest *bool) ([]SearchResult, error) {
	must := []*qdrant.Condition{qdrant.NewMatch("logical_id", logicalID)}
	if isLatest != nil {
		must = append(must, qdrant.NewMatchBool("is_latest", *isLatest))
	}

	const scrollLimit = 100
	limit := uint32(scrollLimit)
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         &qdrant.Filter{Must: must},
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: scroll_by_logical %q: %w", logicalID, err)
	}

	out := make([]SearchResult, 0, len(points))
	for _, p := range points {
		out = append(out, SearchResult{
			ID:      pointIDString(p.GetId()),
			Payload: qdrant.NewValueMapFromPayload(p.GetPayload()),
		})
	}
	return out, nil
}

// ScrollByFilter returns up to limit stored points matching filter,
// without running a vector query. Used by call-graph expansion to find
// the chunk defining a symbol an edge points at, where there is no query
// vector to rank against.
func (s *Store) ScrollByFilter(ctx context.Context, filter Filter, limit uint32) ([]SearchResult, error) {
	conds := make([]*qdrant.Condition, 0, len(filter.Match)+len(filter.MatchBool)+1)
	for k, v := range filter.Match {
		conds = append(conds, qdrant.NewMatch(k, v))
	}
	for k, v := range filter.MatchBool {
		conds = append(conds, qdrant.NewMatchBool(k, v))
	}
	if len(filter.AnyTags) > 0 {
		conds = append(conds, qdrant.NewMatchKeywords("tags", filter.AnyTags...))
	}
	if limit == 0 {
		limit = 10
	}

	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         &qdrant.Filter{Must: conds},
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: scroll_by_filter: %w", err)
	}

	out := make([]SearchResult, 0, len(points))
	for _, p := range points {
		out = append(out, SearchResult{
			ID:      pointIDString(p.GetId()),
			Payload: qdrant.NewValueMapFromPayload(p.GetPayload()),
		})
	}
	return out, nil
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

// BasePayload builds the stable, stack-agnostic payload fields every point
// carries regardless of which stack plugin enriched the chunk.
func BasePayload(c chunk.Chunk, repoID, branch, commitSHA string, isLatest bool) map[string]any {
	payload := map[string]any{
		"logical_id":   c.LogicalID,
		"repo":         repoID,
		"repo_id":      repoID,
		"branch":       branch,
		"commit_sha":   commitSHA,
		"path":         c.Path,
		"language":     c.Language,
		"symbol":       c.Symbol,
		"start_line":   c.Range.StartLine,
		"end_line":     c.Range.EndLine,
		"byte_start":   c.Range.ByteStart,
		"byte_end":     c.Range.ByteEnd,
		"content_hash": c.ContentHash,
		"sig_hash":     c.SigHash,
		"is_latest":    isLatest,
	}
	if c.BlockID != "" {
		payload["block_id"] = c.BlockID
	}
	if c.BlockRange != nil {
		payload["block_start_line"] = c.BlockRange.StartLine
		payload["block_end_line"] = c.BlockRange.EndLine
		payload["block_byte_start"] = c.BlockRange.ByteStart
		payload["block_byte_end"] = c.BlockRange.ByteEnd
	}
	if c.StackType != "" {
		payload["stack_type"] = c.StackType
	}
	if c.ComponentType != "" {
		payload["component_type"] = c.ComponentType
	}
	if c.ScreenName != "" {
		payload["screen_name"] = c.ScreenName
	}
	if c.LayoutFile != "" {
		payload["layout_file"] = c.LayoutFile
	}
	if c.NavGraphID != "" {
		payload["nav_graph_id"] = c.NavGraphID
	}
	if len(c.Tags) > 0 {
		payload["tags"] = c.Tags
	}
	if len(c.Edges) > 0 {
		edges := make([]map[string]any, 0, len(c.Edges))
		for _, e := range c.Edges {
			edges = append(edges, map[string]any{"type": e.Type, "target": e.Target, "meta": e.Meta})
		}
		payload["edges"] = edges
	}
	return payload
}
