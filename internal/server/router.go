package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/coderadar/internal/server/handler"
)

// NewRouter builds the chi router exposing the repos/index/search/status
// surface described in spec.md §6.
func NewRouter(deps *Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Index/search handlers stream or run long enough to need their own
	// per-request deadlines rather than one blanket timeout, so this stays
	// off the global middleware stack (unlike the teacher's webhook router).

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	h := handler.New(handler.Deps{
		Config:      deps.Config,
		Registry:    deps.Registry,
		StateCache:  deps.StateCache,
		Discovery:   deps.Discovery,
		Initializer: deps.Initializer,
		Logger:      deps.Logger,
		OpenGateway: deps.OpenGateway,
	})

	r.Route("/repos", func(r chi.Router) {
		r.Get("/", h.ListRepos)
		r.Post("/{repo_id}/index/full", h.FullIndex)
		r.Post("/{repo_id}/index/update", h.UpdateIndex)
		r.Get("/{repo_id}/status", h.RepoStatus)
		r.Get("/{repo_id}/index/status", h.IndexStatus)
	})
	r.Post("/search", h.Search)

	return r
}
