package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Document represents one ingested markdown source.
type Document struct {
	ID          uuid.UUID
	Source      string
	ContentHash string
	IngestedAt  time.Time
}

// Chunk represents a bounded span of a document's text with its embedding.
// Embedding is nil for oversize chunks, which participate only in the
// full-text half of hybrid search.
type Chunk struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	Seq         int
	HeadingPath []string
	Content     string
	StartOffset int
	EndOffset   int
	Oversize    bool
	Embedding   *pgvector.Vector
	Model       string
	CreatedAt   time.Time
}

// SearchResult pairs a chunk with the raw score of one search sub-query.
type SearchResult struct {
	Chunk *Chunk
	Score float64
}

// StoreError reports a failed store operation. Writes are transactional,
// so a surfaced StoreError means nothing was applied.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
