package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbedBatchesRequestsAndFlattensResult(t *testing.T) {
	var requests [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req.Input)

		resp := embeddingsResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{0.1, 0.2}})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "test-model", BatchSize: 2})
	vectors, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Len(t, requests, 2)
	require.Len(t, requests[0], 2)
	require.Len(t, requests[1], 1)
}

func TestEmbedEmptyInputReturnsNil(t *testing.T) {
	c := New(Config{BaseURL: "http://unused", Model: "m"})
	vectors, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, vectors)
}

func TestEmbedNonOKStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "m"})
	_, err := c.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
}
