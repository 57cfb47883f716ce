package embeddings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama serves /api/embeddings with a deterministic vector derived from
// the prompt, optionally failing the first failures requests.
func fakeOllama(t *testing.T, failures int, failCode int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= int64(failures) {
			w.WriteHeader(failCode)
			return
		}

		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Vector encodes the prompt length so batch ordering is checkable.
		vec := []float32{float32(len(req.Prompt)), 1, 2}
		json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestEmbedSuccess(t *testing.T) {
	srv, calls := fakeOllama(t, 0, 0)
	e := NewTextEmbedder(srv.URL, "test-model")

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1, 2}, vec.Slice())
	assert.Equal(t, int64(1), calls.Load())
}

func TestEmbedRetryAbsorbsTransientFailures(t *testing.T) {
	srv, calls := fakeOllama(t, 2, http.StatusInternalServerError)
	e := NewTextEmbedder(srv.URL, "test-model",
		WithRetry(3, time.Millisecond))

	vec, err := e.Embed(context.Background(), "retry me")
	require.NoError(t, err, "two transient failures must be absorbed")
	assert.Equal(t, []float32{8, 1, 2}, vec.Slice())
	assert.Equal(t, int64(3), calls.Load())
}

func TestEmbedRetriesExhausted(t *testing.T) {
	srv, calls := fakeOllama(t, 10, http.StatusServiceUnavailable)
	e := NewTextEmbedder(srv.URL, "test-model",
		WithRetry(2, time.Millisecond))

	_, err := e.Embed(context.Background(), "doomed")
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.True(t, svcErr.Transient)
	assert.Equal(t, int64(3), calls.Load(), "initial attempt plus two retries")
}

func TestEmbedNonTransientNotRetried(t *testing.T) {
	srv, calls := fakeOllama(t, 10, http.StatusBadRequest)
	e := NewTextEmbedder(srv.URL, "test-model",
		WithRetry(3, time.Millisecond))

	_, err := e.Embed(context.Background(), "bad request")
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.False(t, svcErr.Transient)
	assert.Equal(t, int64(1), calls.Load(), "client errors must surface immediately")
}

func TestEmbedEmptyText(t *testing.T) {
	e := NewTextEmbedder("http://localhost:0", "test-model")
	_, err := e.Embed(context.Background(), "   ")
	require.Error(t, err)
}

func TestEmbedDimensionMismatch(t *testing.T) {
	srv, _ := fakeOllama(t, 0, 0)
	e := NewTextEmbedder(srv.URL, "test-model", WithDimension(768))

	_, err := e.Embed(context.Background(), "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.False(t, svcErr.Transient)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv, _ := fakeOllama(t, 0, 0)
	e := NewTextEmbedder(srv.URL, "test-model", WithParallelism(4))

	texts := make([]string, 16)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}

	vectors, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, vec := range vectors {
		assert.Equal(t, float32(i+1), vec.Slice()[0], "vector %d out of order", i)
	}
}

func TestEmbedBatchSurfacesFailure(t *testing.T) {
	srv, _ := fakeOllama(t, 0, 0)
	e := NewTextEmbedder(srv.URL, "test-model")

	_, err := e.EmbedBatch(context.Background(), []string{"ok", "", "ok"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("failed to embed text %d", 1))
}
