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

func TestOpenAIAdapter_EmbedBatchSingleRequest(t *testing.T) {
	requests := 0
	var gotAuth string
	var gotReq openAIEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := openAIEmbedResponse{}
		for range gotReq.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{1, 2}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "sk-test", "text-embedding-3-small")
	vectors, err := adapter.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 1, requests, "batch goes out as one request")
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, []string{"a", "b", "c"}, gotReq.Input)
	assert.Len(t, vectors, 3)
}

func TestOpenAIAdapter_MissingAPIKey(t *testing.T) {
	adapter := NewOpenAIAdapter("http://unused", "", "")
	_, err := adapter.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestOpenAIAdapter_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIEmbedResponse{})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "sk-test", "")
	_, err := adapter.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 embeddings for 2 inputs")
}

func TestOpenAIAdapter_ErrorStatusIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "sk-test", "")
	_, err := adapter.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
