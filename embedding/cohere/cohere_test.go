package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/embedding"
)

func newTestClient(t *testing.T, url string, optFns ...func(o *Options)) *Client {
	t.Helper()
	base := func(o *Options) {
		o.BaseURL = url
		o.RequestsPerMinute = 0
		o.MaxRetries = 2
	}
	c, err := New("test-key", append([]func(o *Options){base}, optFns...)...)
	require.NoError(t, err)
	return c
}

func TestGenerateSendsPurposeAndModel(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2}}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vectors, err := c.Generate(context.Background(), []string{"hello"}, embedding.PurposeQuery)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, "search_query", got.InputType)
	assert.Equal(t, "embed-english-v3.0", got.Model)
}

func TestGeneratePreservesOrderAcrossBatches(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		calls++
		mu.Unlock()

		// Echo each text's numeric suffix back as its vector, so the test can
		// verify reassembly order.
		resp := embedResponse{}
		for _, text := range req.Texts {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(text[len(text)-1] - '0')})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(o *Options) { o.MaxBatchSize = 2 })
	vectors, err := c.Generate(context.Background(),
		[]string{"t0", "t1", "t2", "t3", "t4"}, embedding.PurposeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i)}, v)
	}
	assert.Equal(t, 3, calls)
}

func TestGenerateRetriesOnTooManyRequests(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vectors, err := c.Generate(context.Background(), []string{"x"}, embedding.PurposeQuery)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, vectors)
	assert.Equal(t, 2, attempts)
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(embedResponse{Message: "invalid api token"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate(context.Background(), []string{"x"}, embedding.PurposeQuery)
	require.Error(t, err)
	var provErr *core.EmbeddingProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, err.Error(), "invalid api token")
	assert.Equal(t, 1, attempts)
}

func TestGenerateRejectsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate(context.Background(), []string{"a", "b"}, embedding.PurposeDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 texts")
}

func TestGenerateEmptyInput(t *testing.T) {
	c := newTestClient(t, "http://unused.invalid")
	vectors, err := c.Generate(context.Background(), nil, embedding.PurposeDocument)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	var valErr *core.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
