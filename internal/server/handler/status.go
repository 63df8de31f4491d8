package handler

import (
	"net/http"
	"strings"
)

// repoStatusResponse mirrors StatusResponse from
// original_source/server/models/status.py.
type repoStatusResponse struct {
	Modified []string `json:"modified"`
	Added    []string `json:"added"`
	Deleted  []string `json:"deleted"`
	Renamed  []string `json:"renamed"`
}

// RepoStatus answers GET /repos/{repo_id}/status with the working tree's
// porcelain status, grouped by change kind.
func (h *Handler) RepoStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	repoID := repoIDParam(r)

	repo, err := h.deps.Registry.EnsureRepo(ctx, repoID, h.defaultRepoEntry(repoID, ""))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if repo.Archived {
		writeError(w, http.StatusBadRequest, "repository '"+repoID+"' is archived")
		return
	}

	repoPath, err := h.deps.Discovery.ResolveRepoPath(repoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	gw, err := h.deps.OpenGateway(ctx, repoPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out, err := gw.StatusPorcelain(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, parsePorcelainStatus(out))
}

func parsePorcelainStatus(out string) repoStatusResponse {
	resp := repoStatusResponse{Modified: []string{}, Added: []string{}, Deleted: []string{}, Renamed: []string{}}
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 3 {
			continue
		}
		x, y := line[0], line[1]
		path := strings.TrimSpace(line[3:])

		var status byte
		switch {
		case isStatusLetter(x):
			status = x
		case isStatusLetter(y):
			status = y
		default:
			continue
		}

		switch status {
		case 'M':
			resp.Modified = append(resp.Modified, path)
		case 'A':
			resp.Added = append(resp.Added, path)
		case 'D':
			resp.Deleted = append(resp.Deleted, path)
		case 'R':
			resp.Renamed = append(resp.Renamed, path)
		}
	}
	return resp
}

func isStatusLetter(b byte) bool {
	switch b {
	case 'M', 'A', 'D', 'R':
		return true
	default:
		return false
	}
}

// indexStatusResponse mirrors IndexStatus from
// original_source/server/models/index.py.
type indexStatusResponse struct {
	RepoID                   string `json:"repo_id"`
	LastIndexedCommit        string `json:"last_indexed_commit"`
	LastIndexMode            string `json:"last_index_mode"`
	LastIndexStatus          string `json:"last_index_status"`
	LastIndexError           string `json:"last_index_error,omitempty"`
	LastIndexTotalFiles      int    `json:"last_index_total_files"`
	LastIndexProcessedFiles  int    `json:"last_index_processed_files"`
	LastIndexCurrentFile     string `json:"last_index_current_file,omitempty"`
}

// IndexStatus answers GET /repos/{repo_id}/index/status with the
// persisted run-status record.
func (h *Handler) IndexStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	repoID := repoIDParam(r)

	repo, err := h.deps.Registry.EnsureRepo(ctx, repoID, h.defaultRepoEntry(repoID, ""))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := indexStatusResponse{
		RepoID:             repo.RepoID,
		LastIndexedCommit:  repo.LastIndexedCommit,
		LastIndexStatus:    "idle",
	}

	status, err := h.deps.Registry.GetRunStatus(ctx, repoID)
	if err == nil && status != nil {
		resp.LastIndexMode = status.Mode
		resp.LastIndexStatus = status.Status
		resp.LastIndexError = status.LastError
		resp.LastIndexTotalFiles = status.TotalFiles
		resp.LastIndexProcessedFiles = status.ProcessedFiles
		resp.LastIndexCurrentFile = status.CurrentFile
	}
	writeJSON(w, http.StatusOK, resp)
}
