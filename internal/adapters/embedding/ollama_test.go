package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaAdapter_Embed(t *testing.T) {
	var gotPath string
	var gotReq ollamaEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "nomic-embed-text")
	vec, err := adapter.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "/api/embeddings", gotPath)
	assert.Equal(t, "nomic-embed-text", gotReq.Model)
	assert.Equal(t, "hello", gotReq.Prompt)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaAdapter_EmbedBatchIsSequential(t *testing.T) {
	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Prompt)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{float32(len(prompts))}})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "")
	vectors, err := adapter.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, prompts)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1}, vectors[0])
	assert.Equal(t, []float32{3}, vectors[2])
}

func TestOllamaAdapter_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "")
	_, err := adapter.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaAdapter_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "")
	_, err := adapter.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}
