package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sevigo/coderadar/internal/embedclient"
	"github.com/sevigo/coderadar/internal/retriever"
	"github.com/sevigo/coderadar/internal/util"
	"github.com/sevigo/coderadar/internal/vectorstore"
)

// searchRequest mirrors SearchRequest from
// original_source/server/models/search.py, plus an ExpandGraph field for
// the supplemented call-graph widening feature.
type searchRequest struct {
	Query         string   `json:"query"`
	K             int      `json:"k"`
	RepoID        string   `json:"repo_id,omitempty"`
	StackType     string   `json:"stack_type,omitempty"`
	ComponentType string   `json:"component_type,omitempty"`
	ScreenName    string   `json:"screen_name,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ExpandGraph   int      `json:"expand_call_graph,omitempty"`
}

type searchHit struct {
	ID        string         `json:"id"`
	Score     float32        `json:"score"`
	Payload   map[string]any `json:"payload"`
	BlockText string         `json:"block_text,omitempty"`
	FocusText string         `json:"focus_text,omitempty"`
}

// Search answers POST /search, mirroring search_router.py's search
// handler: resolve the repo's (or the default) embedding client and
// vector store, run the retriever, and optionally widen the result set
// across the stored call graph.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	cfg := h.deps.Config
	stackType := req.StackType
	var resolver retriever.RepoPathResolver
	var emb *embedclient.Client
	var store *vectorstore.Store
	var err error

	if req.RepoID != "" {
		repoEntry, rerr := h.deps.Registry.EnsureRepo(ctx, req.RepoID, h.defaultRepoEntry(req.RepoID, req.StackType))
		if rerr != nil {
			writeError(w, http.StatusInternalServerError, rerr.Error())
			return
		}
		if repoEntry.Archived {
			writeError(w, http.StatusBadRequest, "repository '"+req.RepoID+"' is archived")
			return
		}
		if stackType == "" {
			stackType = repoEntry.StackType
		}
		emb, store, err = h.deps.Initializer.ResolveClients(ctx, repoEntry.CollectionName, repoEntry.EmbeddingModel)
		resolver = h.deps.Discovery
	} else {
		defaultCollection := util.GenerateCollectionName("default", cfg.Embedding.Model)
		emb, store, err = h.deps.Initializer.ResolveClients(ctx, defaultCollection, cfg.Embedding.Model)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ret := retriever.New(store, emb, resolver)
	hits, err := ret.Search(ctx, retriever.Query{
		Text:          req.Query,
		K:             req.K,
		Branch:        cfg.Repos.DefaultBranch,
		Repo:          req.RepoID,
		StackType:     stackType,
		ComponentType: req.ComponentType,
		ScreenName:    req.ScreenName,
		Tags:          req.Tags,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.ExpandGraph > 0 {
		hits, err = ret.ExpandWithCallGraph(ctx, hits, req.ExpandGraph)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, toSearchHits(hits))
}

func toSearchHits(hits []retriever.Hit) []searchHit {
	out := make([]searchHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, searchHit{
			ID:        h.ID,
			Score:     h.Score,
			Payload:   h.Payload,
			BlockText: h.BlockText,
			FocusText: h.FocusText,
		})
	}
	return out
}
