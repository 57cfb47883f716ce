package rag

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clarion-ai/cli/internal/db"
)

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error)
	Model() string
}

// Store is the persistence surface the pipeline needs; *db.DB implements it.
type Store interface {
	GetDocumentBySource(ctx context.Context, source string) (*db.Document, error)
	ReplaceDocument(ctx context.Context, source, contentHash string, chunks []*db.Chunk) (int, error)
	SearchSimilarChunks(ctx context.Context, embedding pgvector.Vector, limit int) ([]*db.SearchResult, error)
	SearchTextChunks(ctx context.Context, query string, limit int) ([]*db.SearchResult, error)
	CountChunks(ctx context.Context) (int64, error)
}

// Retriever answers queries with hybrid search: a vector sub-query and a
// full-text sub-query run concurrently, then their rankings are fused.
type Retriever struct {
	store      Store
	embedder   Embedder
	alpha      float64
	candidates int
	logger     *zap.Logger
}

// NewRetriever creates a retriever. alpha weights the vector score against
// the full-text score and must be in [0,1]; candidates bounds how many
// results each sub-query contributes before fusion.
func NewRetriever(store Store, embedder Embedder, alpha float64, candidates int, logger *zap.Logger) (*Retriever, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be in [0,1], got %g", alpha)
	}
	if candidates <= 0 {
		candidates = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		alpha:      alpha,
		candidates: candidates,
		logger:     logger,
	}, nil
}

// Retrieve returns at most topK chunks ranked by fused score, descending.
// It fails with ErrEmptyIndex only when the collection has no chunks; a
// query matching nothing yields an empty list.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}

	count, err := r.store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}
	if count == 0 {
		return nil, ErrEmptyIndex
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := r.candidates
	if topK > limit {
		limit = topK
	}

	var vecResults, textResults []*db.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vecResults, err = r.store.SearchSimilarChunks(gctx, queryEmbedding, limit)
		return err
	})
	g.Go(func() error {
		var err error
		textResults, err = r.store.SearchTextChunks(gctx, query, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}

	fused := fuseResults(vecResults, textResults, r.alpha)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	r.logger.Debug("retrieval complete",
		zap.String("query", query),
		zap.Int("vector_candidates", len(vecResults)),
		zap.Int("text_candidates", len(textResults)),
		zap.Int("returned", len(fused)),
	)
	return fused, nil
}
