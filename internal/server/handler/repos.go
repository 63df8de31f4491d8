package handler

import "net/http"

// ListRepos answers GET /repos with every git checkout found on disk,
// independent of what the registry happens to already track — mirroring
// index_router.py's list_repos, which reads list_git_repositories
// directly rather than querying the registry.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.deps.Discovery.ListRepositories()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if repos == nil {
		repos = []string{}
	}
	writeJSON(w, http.StatusOK, repos)
}
