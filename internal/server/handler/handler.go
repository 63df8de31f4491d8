// Package handler implements the HTTP endpoints spec.md §6 describes:
// repo discovery, full/incremental indexing (both NDJSON-streamed), search,
// and status. Grounded on the reference implementation's FastAPI routers
// (original_source/server/routers/{index,search,status}_router.py), with
// the teacher's webhook handler (internal/server/handler/webhook.go, now
// removed — see DESIGN.md) supplying the constructor/logging shape.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/coderadar/internal/config"
	"github.com/sevigo/coderadar/internal/gitgateway"
	"github.com/sevigo/coderadar/internal/initializer"
	"github.com/sevigo/coderadar/internal/registry"
	"github.com/sevigo/coderadar/internal/util"
)

// Deps bundles everything a Handler needs to serve a request.
type Deps struct {
	Config      *config.Config
	Registry    registry.Store
	StateCache  *registry.StateCache
	Discovery   *registry.Discovery
	Initializer *initializer.Initializer
	Logger      *slog.Logger
	OpenGateway func(ctx context.Context, repoPath string) (*gitgateway.Gateway, error)
}

// Handler groups the repos/index/search/status endpoints.
type Handler struct {
	deps Deps
}

// New builds a Handler. A nil OpenGateway defaults to gitgateway.Open.
func New(deps Deps) *Handler {
	if deps.OpenGateway == nil {
		deps.OpenGateway = gitgateway.Open
	}
	return &Handler{deps: deps}
}

func repoIDParam(r *http.Request) string {
	return chi.URLParam(r, "repo_id")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// defaultRepoEntry is the get-or-create seed for a repo not yet known to
// the registry, mirroring the Python routers' inline `defaults` dict.
func (h *Handler) defaultRepoEntry(repoID, stackType string) registry.RepoEntry {
	model := h.deps.Config.Embedding.Model
	return registry.RepoEntry{
		RepoID:         repoID,
		Name:           repoID,
		StackType:      stackType,
		CollectionName: util.GenerateCollectionName(repoID, model),
		EmbeddingModel: model,
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.deps.Logger != nil {
		return h.deps.Logger
	}
	return slog.Default()
}
