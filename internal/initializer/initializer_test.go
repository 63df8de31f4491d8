package initializer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/coderadar/internal/config"
)

func TestEmbeddingClientIsCachedPerModel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Embedding.BaseURL = "http://localhost:8080"
	cfg.Embedding.BatchSize = 8

	in := New(cfg)
	a := in.EmbeddingClient("model-a")
	b := in.EmbeddingClient("model-a")
	c := in.EmbeddingClient("model-b")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}
