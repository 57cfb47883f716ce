package rag

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarion-ai/cli/internal/db"
)

func TestNewRetrieverValidation(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}

	_, err := NewRetriever(store, emb, -0.1, 20, nil)
	assert.Error(t, err)
	_, err = NewRetriever(store, emb, 1.1, 20, nil)
	assert.Error(t, err)
	_, err = NewRetriever(store, emb, 0.5, 20, nil)
	assert.NoError(t, err)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	store := newFakeStore()
	r, err := NewRetriever(store, &fakeEmbedder{}, 0.5, 20, nil)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestRetrieveNoMatchesIsNotAnError(t *testing.T) {
	store := newFakeStore()
	store.count = 10 // collection has chunks, but neither sub-query matches

	r, err := NewRetriever(store, &fakeEmbedder{}, 0.5, 20, nil)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "unmatched term", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveRanksAndTruncates(t *testing.T) {
	docID := uuid.New()
	store := newFakeStore()
	store.count = 4

	best := chunkWith(docID, 0, "best")
	mid := chunkWith(docID, 1, "mid")
	low := chunkWith(docID, 2, "low")
	textHit := chunkWith(docID, 3, "text hit")

	store.vecResults = []*db.SearchResult{
		{Chunk: best, Score: 0.9},
		{Chunk: mid, Score: 0.5},
		{Chunk: low, Score: 0.1},
	}
	store.textResults = []*db.SearchResult{
		{Chunk: best, Score: 4.0},
		{Chunk: textHit, Score: 1.0},
	}

	r, err := NewRetriever(store, &fakeEmbedder{}, 0.5, 20, nil)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2, "top_k bounds the result count")

	assert.Equal(t, best.ID, results[0].Chunk.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "scores must descend")
	}
}

func TestRetrieveDeterministic(t *testing.T) {
	docID := uuid.New()
	store := newFakeStore()
	store.count = 3

	for i := 0; i < 3; i++ {
		c := chunkWith(docID, i, "chunk")
		store.vecResults = append(store.vecResults, &db.SearchResult{Chunk: c, Score: 0.5})
		store.textResults = append(store.textResults, &db.SearchResult{Chunk: c, Score: 1.0})
	}

	r, err := NewRetriever(store, &fakeEmbedder{}, 0.5, 20, nil)
	require.NoError(t, err)

	first, err := r.Retrieve(context.Background(), "query", 3)
	require.NoError(t, err)
	second, err := r.Retrieve(context.Background(), "query", 3)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Chunk.ID, second[i].Chunk.ID)
	}
}

func TestRetrieveInvalidTopK(t *testing.T) {
	r, err := NewRetriever(newFakeStore(), &fakeEmbedder{}, 0.5, 20, nil)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "query", 0)
	assert.Error(t, err)
}
