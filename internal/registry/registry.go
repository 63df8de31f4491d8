// Package registry implements the Registry Bridge: the minimal contract
// spec.md §4.10 describes for persisting per-repo state external to the
// indexing core — collection name, embedding model, optional stack type,
// last indexed commit, and a run-status record (mode, started/finished
// timestamps, counts, current file, last error).
//
// Grounded on original_source/server/services/repository_registry.py's
// RepositoryRegistry (the Repository row shape and the
// ensure_repository/update_index_status methods) and on the teacher's
// internal/storage/database.go (the sqlx Store interface, named-query
// upserts, and ErrNotFound sentinel pattern).
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested repository row does not exist.
var ErrNotFound = errors.New("registry: repository not found")

// RepoEntry is the persisted row spec.md §3 describes as external to the
// core: identity plus the fields the indexer needs to resolve its
// embedding client and vector store.
type RepoEntry struct {
	RepoID            string    `db:"repo_id"`
	Name              string    `db:"name"`
	URL               string    `db:"url"`
	StackType         string    `db:"stack_type"`
	CollectionName    string    `db:"collection_name"`
	EmbeddingModel    string    `db:"embedding_model"`
	LastIndexedCommit string    `db:"last_indexed_commit"`
	Archived          bool      `db:"archived"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// RunStatus is the advisory, periodically-persisted record of the most
// recent indexing run's state machine (idle -> running -> completed |
// noop | error), matching the run-status record in spec.md §3.
type RunStatus struct {
	RepoID         string     `db:"repo_id"`
	Mode           string     `db:"mode"`
	Status         string     `db:"status"`
	StartedAt      *time.Time `db:"started_at"`
	FinishedAt     *time.Time `db:"finished_at"`
	TotalFiles     int        `db:"total_files"`
	ProcessedFiles int        `db:"processed_files"`
	CurrentFile    string     `db:"current_file"`
	LastError      string     `db:"last_error"`
}

// Store is the Registry Bridge's persistence contract.
//
//go:generate mockgen -destination=../../mocks/mock_registry.go -package=mocks github.com/sevigo/coderadar/internal/registry Store
type Store interface {
	// EnsureRepo returns the existing row for repoID, creating one from
	// defaults on first use — mirroring ensure_repository's
	// get-or-create semantics.
	EnsureRepo(ctx context.Context, repoID string, defaults RepoEntry) (*RepoEntry, error)
	GetRepo(ctx context.Context, repoID string) (*RepoEntry, error)
	ListRepos(ctx context.Context) ([]*RepoEntry, error)
	UpdateStackType(ctx context.Context, repoID, stackType string) (*RepoEntry, error)
	ArchiveRepo(ctx context.Context, repoID string, archived bool) error
	DeleteRepo(ctx context.Context, repoID string) error

	GetRunStatus(ctx context.Context, repoID string) (*RunStatus, error)
	UpsertRunStatus(ctx context.Context, status RunStatus) error
	SetLastIndexedCommit(ctx context.Context, repoID, commitSHA string) error
}

type postgresStore struct {
	db *sqlx.DB
}

// Open connects to Postgres, pings it, and ensures the registry schema
// exists. It does not run a migration framework: the schema is small and
// stable enough to create inline, unlike the teacher's golang-migrate
// pipeline (see DESIGN.md for why that dependency was dropped).
func Open(ctx context.Context, dsn string) (Store, func(), error) {
	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, func() {}, fmt.Errorf("registry: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, func() {}, fmt.Errorf("registry: ping: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schemaDDL); err != nil {
		_ = conn.Close()
		return nil, func() {}, fmt.Errorf("registry: ensure schema: %w", err)
	}
	return &postgresStore{db: conn}, func() { _ = conn.Close() }, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS repositories (
	repo_id             TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	url                 TEXT NOT NULL DEFAULT '',
	stack_type          TEXT NOT NULL DEFAULT '',
	collection_name     TEXT NOT NULL,
	embedding_model     TEXT NOT NULL,
	last_indexed_commit TEXT NOT NULL DEFAULT '',
	archived            BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS run_status (
	repo_id         TEXT PRIMARY KEY REFERENCES repositories(repo_id) ON DELETE CASCADE,
	mode            TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'idle',
	started_at      TIMESTAMPTZ,
	finished_at     TIMESTAMPTZ,
	total_files     INTEGER NOT NULL DEFAULT 0,
	processed_files INTEGER NOT NULL DEFAULT 0,
	current_file    TEXT NOT NULL DEFAULT '',
	last_error      TEXT NOT NULL DEFAULT ''
);
`

func (s *postgresStore) EnsureRepo(ctx context.Context, repoID string, defaults RepoEntry) (*RepoEntry, error) {
	existing, err := s.GetRepo(ctx, repoID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	defaults.RepoID = repoID
	if defaults.Name == "" {
		defaults.Name = repoID
	}
	query := `
		INSERT INTO repositories (repo_id, name, url, stack_type, collection_name, embedding_model, last_indexed_commit)
		VALUES (:repo_id, :name, :url, :stack_type, :collection_name, :embedding_model, :last_indexed_commit)
		ON CONFLICT (repo_id) DO NOTHING
		RETURNING repo_id, name, url, stack_type, collection_name, embedding_model, last_indexed_commit, archived, created_at, updated_at`
	rows, err := s.db.NamedQueryContext(ctx, query, defaults)
	if err != nil {
		return nil, fmt.Errorf("registry: ensure repo %q: %w", repoID, err)
	}
	defer rows.Close()
	if rows.Next() {
		var repo RepoEntry
		if err := rows.StructScan(&repo); err != nil {
			return nil, fmt.Errorf("registry: scan ensured repo %q: %w", repoID, err)
		}
		return &repo, nil
	}
	// Lost the insert race to a concurrent request; read back what won.
	return s.GetRepo(ctx, repoID)
}

func (s *postgresStore) GetRepo(ctx context.Context, repoID string) (*RepoEntry, error) {
	const query = `
		SELECT repo_id, name, url, stack_type, collection_name, embedding_model, last_indexed_commit, archived, created_at, updated_at
		FROM repositories WHERE repo_id = $1`
	var repo RepoEntry
	if err := s.db.GetContext(ctx, &repo, query, repoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("registry: get repo %q: %w", repoID, err)
	}
	return &repo, nil
}

func (s *postgresStore) ListRepos(ctx context.Context) ([]*RepoEntry, error) {
	const query = `
		SELECT repo_id, name, url, stack_type, collection_name, embedding_model, last_indexed_commit, archived, created_at, updated_at
		FROM repositories WHERE NOT archived ORDER BY repo_id ASC`
	var repos []*RepoEntry
	if err := s.db.SelectContext(ctx, &repos, query); err != nil {
		return nil, fmt.Errorf("registry: list repos: %w", err)
	}
	return repos, nil
}

func (s *postgresStore) UpdateStackType(ctx context.Context, repoID, stackType string) (*RepoEntry, error) {
	const query = `UPDATE repositories SET stack_type = $2, updated_at = NOW() WHERE repo_id = $1`
	if _, err := s.db.ExecContext(ctx, query, repoID, stackType); err != nil {
		return nil, fmt.Errorf("registry: update stack_type for %q: %w", repoID, err)
	}
	return s.GetRepo(ctx, repoID)
}

func (s *postgresStore) ArchiveRepo(ctx context.Context, repoID string, archived bool) error {
	const query = `UPDATE repositories SET archived = $2, updated_at = NOW() WHERE repo_id = $1`
	_, err := s.db.ExecContext(ctx, query, repoID, archived)
	if err != nil {
		return fmt.Errorf("registry: archive repo %q: %w", repoID, err)
	}
	return nil
}

func (s *postgresStore) DeleteRepo(ctx context.Context, repoID string) error {
	const query = `DELETE FROM repositories WHERE repo_id = $1`
	_, err := s.db.ExecContext(ctx, query, repoID)
	if err != nil {
		return fmt.Errorf("registry: delete repo %q: %w", repoID, err)
	}
	return nil
}

func (s *postgresStore) GetRunStatus(ctx context.Context, repoID string) (*RunStatus, error) {
	const query = `
		SELECT repo_id, mode, status, started_at, finished_at, total_files, processed_files, current_file, last_error
		FROM run_status WHERE repo_id = $1`
	var st RunStatus
	if err := s.db.GetContext(ctx, &st, query, repoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("registry: get run status %q: %w", repoID, err)
	}
	return &st, nil
}

// UpsertRunStatus writes the full run-status row. Callers (internal/indexer
// via the Recorder adapter) pass whichever fields are relevant to the
// current transition; zero-value fields overwrite, except that a NULL
// started_at or finished_at keeps the stored timestamp, matching the
// at-most-one-row-per-repo design of spec.md's run-status record.
func (s *postgresStore) UpsertRunStatus(ctx context.Context, status RunStatus) error {
	const query = `
		INSERT INTO run_status (repo_id, mode, status, started_at, finished_at, total_files, processed_files, current_file, last_error)
		VALUES (:repo_id, :mode, :status, :started_at, :finished_at, :total_files, :processed_files, :current_file, :last_error)
		ON CONFLICT (repo_id) DO UPDATE SET
			mode = EXCLUDED.mode,
			status = EXCLUDED.status,
			started_at = COALESCE(EXCLUDED.started_at, run_status.started_at),
			finished_at = COALESCE(EXCLUDED.finished_at, run_status.finished_at),
			total_files = EXCLUDED.total_files,
			processed_files = EXCLUDED.processed_files,
			current_file = EXCLUDED.current_file,
			last_error = EXCLUDED.last_error`
	_, err := s.db.NamedExecContext(ctx, query, status)
	if err != nil {
		return fmt.Errorf("registry: upsert run status for %q: %w", status.RepoID, err)
	}
	return nil
}

func (s *postgresStore) SetLastIndexedCommit(ctx context.Context, repoID, commitSHA string) error {
	const query = `UPDATE repositories SET last_indexed_commit = $2, updated_at = NOW() WHERE repo_id = $1`
	_, err := s.db.ExecContext(ctx, query, repoID, commitSHA)
	if err != nil {
		return fmt.Errorf("registry: set last_indexed_commit for %q: %w", repoID, err)
	}
	return nil
}
