package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOllama(serverURL string) *OllamaEmbedder {
	return NewOllama(serverURL, "llama3.2:3b")
}

func TestOllamaEmbedder_Batch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:3b", req.Model)
		assert.Equal(t, []string{"one", "two"}, req.Input)

		resp := ollamaEmbedResponse{
			Model:      req.Model,
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e := newTestOllama(server.URL)
	vectors, err := e.EmbedDocuments(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestOllamaEmbedder_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 1)

		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Model:      req.Model,
			Embeddings: [][]float32{{1, 0, 0}},
		})
	}))
	defer server.Close()

	e := newTestOllama(server.URL)
	vec, err := e.EmbedQuery(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// One vector for two inputs: malformed.
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{0.5}},
		})
	}))
	defer server.Close()

	e := newTestOllama(server.URL)
	_, err := e.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := newTestOllama(server.URL)
	_, err := e.EmbedDocuments(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOllamaEmbedder_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	e := newTestOllama(server.URL)
	_, err := e.EmbedDocuments(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOllamaEmbedder_EmptyInput(t *testing.T) {
	e := NewOllama("http://localhost:1", "m")
	vectors, err := e.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func newTestOpenAI(serverURL string) *OpenAIEmbedder {
	e := NewOpenAI("test-api-key", "text-embedding-3-small")
	e.baseURL = serverURL + "/v1/embeddings"
	return e
}

func TestOpenAIEmbedder_Batch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Input, 2)

		// Out-of-order data entries must be re-sorted by index.
		resp := openAIEmbedResponse{
			Data: []openAIEmbedData{
				{Embedding: []float32{0.4, 0.5}, Index: 1},
				{Embedding: []float32{0.1, 0.2}, Index: 0},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e := newTestOpenAI(server.URL)
	vectors, err := e.EmbedDocuments(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5}, vectors[1])
}

func TestOpenAIEmbedder_RetriesRateLimit(t *testing.T) {
	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callCount.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "rate limited"}`))
			return
		}
		json.NewEncoder(w).Encode(openAIEmbedResponse{
			Data: []openAIEmbedData{{Embedding: []float32{0.1}, Index: 0}},
		})
	}))
	defer server.Close()

	e := newTestOpenAI(server.URL)
	vectors, err := e.EmbedDocuments(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, int32(2), callCount.Load())
}

func TestOpenAIEmbedder_BadRequestNotRetried(t *testing.T) {
	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	e := newTestOpenAI(server.URL)
	_, err := e.EmbedDocuments(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(1), callCount.Load())
}
