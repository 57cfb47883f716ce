package rag

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/clarion-ai/cli/internal/db"
)

// fakeEmbedder returns deterministic vectors derived from text length.
type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (pgvector.Vector, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn != "" && text == f.failOn {
		return pgvector.Vector{}, errors.New("embedder unavailable")
	}
	return pgvector.NewVector([]float32{float32(len(text)), 1}), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	out := make([]pgvector.Vector, len(texts))
	for i, t := range texts {
		vec, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embed" }

// fakeStore keeps documents and chunks in memory and serves canned search
// results so fusion behavior can be driven precisely.
type fakeStore struct {
	mu          sync.Mutex
	docs        map[string]*db.Document
	chunks      map[string][]*db.Chunk
	vecResults  []*db.SearchResult
	textResults []*db.SearchResult
	count       int64
	replaceErr  error
	replaces    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:   make(map[string]*db.Document),
		chunks: make(map[string][]*db.Chunk),
	}
}

func (s *fakeStore) GetDocumentBySource(_ context.Context, source string) (*db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[source], nil
}

func (s *fakeStore) ReplaceDocument(_ context.Context, source, contentHash string, chunks []*db.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return 0, s.replaceErr
	}
	s.replaces++
	doc, ok := s.docs[source]
	if !ok {
		doc = &db.Document{ID: uuid.New(), Source: source}
		s.docs[source] = doc
	}
	doc.ContentHash = contentHash
	s.chunks[source] = chunks
	return len(chunks), nil
}

func (s *fakeStore) SearchSimilarChunks(_ context.Context, _ pgvector.Vector, limit int) ([]*db.SearchResult, error) {
	if len(s.vecResults) > limit {
		return s.vecResults[:limit], nil
	}
	return s.vecResults, nil
}

func (s *fakeStore) SearchTextChunks(_ context.Context, _ string, limit int) ([]*db.SearchResult, error) {
	if len(s.textResults) > limit {
		return s.textResults[:limit], nil
	}
	return s.textResults, nil
}

func (s *fakeStore) CountChunks(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count > 0 {
		return s.count, nil
	}
	var n int64
	for _, cs := range s.chunks {
		n += int64(len(cs))
	}
	return n, nil
}

// chunkWith builds a chunk for search-result fixtures.
func chunkWith(docID uuid.UUID, seq int, content string) *db.Chunk {
	return &db.Chunk{
		ID:         uuid.New(),
		DocumentID: docID,
		Seq:        seq,
		Content:    content,
	}
}
