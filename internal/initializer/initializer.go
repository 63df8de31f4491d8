// Package initializer holds process-wide, lazily-created clients for the
// embedding service and the vector store, keyed by model name and
// collection name respectively, so repeated indexing runs reuse
// connections instead of reconnecting per request.
//
// Grounded on the reference implementation's Initializer
// (original_source/server/services/initializers.py): the same two-lock
// design (one guarding collection creation, one guarding cache
// population) and the same dimension-probing fallback when no fixed
// dimension is configured.
package initializer

import (
	"context"
	"fmt"
	"sync"

	"github.com/sevigo/coderadar/internal/config"
	"github.com/sevigo/coderadar/internal/embedclient"
	"github.com/sevigo/coderadar/internal/vectorstore"
)

// Initializer caches embedding clients and vector stores across requests.
// collectionLock guards collection-existence/creation (a slow,
// infrequent path); cacheLock guards the two maps (a fast, frequent
// path) — splitting them keeps a collection-creation probe from
// blocking unrelated cache reads.
type Initializer struct {
	cfg *config.Config

	collectionLock sync.Mutex
	collectionsOK  map[string]struct{}

	cacheLock    sync.Mutex
	embeddings   map[string]*embedclient.Client
	vectorStores map[string]*vectorstore.Store
}

func New(cfg *config.Config) *Initializer {
	return &Initializer{
		cfg:           cfg,
		collectionsOK: make(map[string]struct{}),
		embeddings:    make(map[string]*embedclient.Client),
		vectorStores:  make(map[string]*vectorstore.Store),
	}
}

// EmbeddingClient returns the cached embedding client for modelName,
// creating it on first use.
func (in *Initializer) EmbeddingClient(modelName string) *embedclient.Client {
	in.cacheLock.Lock()
	defer in.cacheLock.Unlock()

	if c, ok := in.embeddings[modelName]; ok {
		return c
	}
	c := embedclient.New(embedclient.Config{
		BaseURL:   in.cfg.Embedding.BaseURL,
		Model:     modelName,
		BatchSize: in.cfg.Embedding.BatchSize,
		Timeout:   in.cfg.Embedding.Timeout,
	})
	in.embeddings[modelName] = c
	return c
}

// VectorStore returns the cached store for collectionName, ensuring the
// collection exists first (probing the embedding model's dimension when
// none is configured).
func (in *Initializer) VectorStore(ctx context.Context, collectionName, embeddingModel string) (*vectorstore.Store, error) {
	if err := in.ensureCollection(ctx, collectionName, embeddingModel); err != nil {
		return nil, err
	}

	in.cacheLock.Lock()
	defer in.cacheLock.Unlock()

	if s, ok := in.vectorStores[collectionName]; ok {
		return s, nil
	}
	s, err := vectorstore.Open(ctx, vectorstore.Config{
		Host:            in.cfg.VectorDB.Host,
		APIKey:          in.cfg.VectorDB.APIKey,
		UseTLS:          in.cfg.VectorDB.UseTLS,
		Collection:      collectionName,
		Dimension:       uint64(in.cfg.VectorDB.Dimension),
		UpsertBatchSize: in.cfg.VectorDB.UpsertBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("initializer: open vector store for %q: %w", collectionName, err)
	}
	in.vectorStores[collectionName] = s
	return s, nil
}

func (in *Initializer) ensureCollection(ctx context.Context, collectionName, embeddingModel string) error {
	in.collectionLock.Lock()
	defer in.collectionLock.Unlock()

	if _, ok := in.collectionsOK[collectionName]; ok {
		return nil
	}

	dim := in.cfg.VectorDB.Dimension
	if dim == 0 {
		sample, err := in.EmbeddingClient(embeddingModel).Embed(ctx, []string{"dimension probe"})
		if err != nil {
			return fmt.Errorf("initializer: probe embedding dimension: %w", err)
		}
		if len(sample) == 0 {
			return fmt.Errorf("initializer: dimension probe returned no vectors")
		}
		dim = len(sample[0])
	}

	// vectorstore.Open is idempotent: it only creates the collection if
	// missing, so calling it here (outside the per-collection cache) is
	// safe even if VectorStore below also calls it later.
	store, err := vectorstore.Open(ctx, vectorstore.Config{
		Host:       in.cfg.VectorDB.Host,
		APIKey:     in.cfg.VectorDB.APIKey,
		UseTLS:     in.cfg.VectorDB.UseTLS,
		Collection: collectionName,
		Dimension:  uint64(dim),
		UpsertBatchSize: in.cfg.VectorDB.UpsertBatch,
	})
	if err != nil {
		return fmt.Errorf("initializer: ensure collection %q: %w", collectionName, err)
	}

	in.cacheLock.Lock()
	in.vectorStores[collectionName] = store
	in.cacheLock.Unlock()

	in.collectionsOK[collectionName] = struct{}{}
	return nil
}

// ResolveClients returns both the embedding client and vector store needed
// to index into collectionName with embeddingModel.
func (in *Initializer) ResolveClients(ctx context.Context, collectionName, embeddingModel string) (*embedclient.Client, *vectorstore.Store, error) {
	store, err := in.VectorStore(ctx, collectionName, embeddingModel)
	if err != nil {
		return nil, nil, err
	}
	return in.EmbeddingClient(embeddingModel), store, nil
}
