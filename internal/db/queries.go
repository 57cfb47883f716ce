package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// GetDocumentBySource retrieves a document by its source identifier.
// Returns nil without error when the document does not exist.
func (db *DB) GetDocumentBySource(ctx context.Context, source string) (*Document, error) {
	var doc Document
	err := db.pool.QueryRow(ctx,
		`SELECT id, source, content_hash, ingested_at
		 FROM documents WHERE source = $1`,
		source,
	).Scan(&doc.ID, &doc.Source, &doc.ContentHash, &doc.IngestedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "get document", Err: err}
	}
	return &doc, nil
}

// ReplaceDocument atomically replaces all chunks for a source: the document
// row is upserted, prior chunks are deleted, and the new set is inserted,
// all within one transaction. On any failure the transaction rolls back and
// the prior version stays visible, so readers never see a partial document.
func (db *DB) ReplaceDocument(ctx context.Context, source, contentHash string, chunks []*Chunk) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, &StoreError{Op: "begin replace", Err: err}
	}
	defer tx.Rollback(ctx)

	var docID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO documents (id, source, content_hash, ingested_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (source) DO UPDATE
		 SET content_hash = EXCLUDED.content_hash, ingested_at = NOW()
		 RETURNING id`,
		uuid.New(), source, contentHash,
	).Scan(&docID)
	if err != nil {
		return 0, &StoreError{Op: fmt.Sprintf("upsert document %s", source), Err: err}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, docID); err != nil {
		return 0, &StoreError{Op: fmt.Sprintf("delete prior chunks for %s", source), Err: err}
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(
			`INSERT INTO chunks
			 (id, document_id, seq, heading_path, content, start_offset, end_offset, oversize, embedding, model)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.New(), docID, chunk.Seq, chunk.HeadingPath, chunk.Content,
			chunk.StartOffset, chunk.EndOffset, chunk.Oversize, chunk.Embedding, chunk.Model,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, &StoreError{Op: fmt.Sprintf("insert chunk %d for %s", i, source), Err: err}
		}
	}
	if err := br.Close(); err != nil {
		return 0, &StoreError{Op: fmt.Sprintf("insert chunks for %s", source), Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &StoreError{Op: fmt.Sprintf("commit replace for %s", source), Err: err}
	}
	return len(chunks), nil
}

// SearchSimilarChunks runs the vector half of hybrid search: cosine
// nearest-neighbour over embedded chunks. Scores are similarities in [0,1].
func (db *DB) SearchSimilarChunks(ctx context.Context, embedding pgvector.Vector, limit int) ([]*SearchResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, document_id, seq, heading_path, content, start_offset, end_offset,
		        oversize, model, created_at, 1 - (embedding <=> $1) AS score
		 FROM chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		embedding, limit,
	)
	if err != nil {
		return nil, &StoreError{Op: "vector search", Err: err}
	}
	defer rows.Close()
	return scanResults(rows, "vector search")
}

// SearchTextChunks runs the lexical half of hybrid search: full-text match
// over the tsvector index, ranked by ts_rank. An empty result set is valid.
func (db *DB) SearchTextChunks(ctx context.Context, query string, limit int) ([]*SearchResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, document_id, seq, heading_path, content, start_offset, end_offset,
		        oversize, model, created_at,
		        ts_rank(tsv, websearch_to_tsquery('english', $1)) AS score
		 FROM chunks
		 WHERE tsv @@ websearch_to_tsquery('english', $1)
		 ORDER BY score DESC, document_id, seq
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, &StoreError{Op: "full-text search", Err: err}
	}
	defer rows.Close()
	return scanResults(rows, "full-text search")
}

func scanResults(rows pgx.Rows, op string) ([]*SearchResult, error) {
	var results []*SearchResult
	for rows.Next() {
		var chunk Chunk
		var score float64
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.HeadingPath,
			&chunk.Content, &chunk.StartOffset, &chunk.EndOffset,
			&chunk.Oversize, &chunk.Model, &chunk.CreatedAt, &score,
		); err != nil {
			return nil, &StoreError{Op: op, Err: err}
		}
		results = append(results, &SearchResult{Chunk: &chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return results, nil
}

// CountChunks returns the number of stored chunks across all documents.
func (db *DB) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, &StoreError{Op: "count chunks", Err: err}
	}
	return count, nil
}

// ListDocuments retrieves all documents with their chunk counts, newest first.
func (db *DB) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, source, content_hash, ingested_at
		 FROM documents ORDER BY ingested_at DESC`,
	)
	if err != nil {
		return nil, &StoreError{Op: "list documents", Err: err}
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.ContentHash, &doc.IngestedAt); err != nil {
			return nil, &StoreError{Op: "list documents", Err: err}
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list documents", Err: err}
	}
	return docs, nil
}

// DeleteDocument removes a document and, via cascade, all of its chunks.
// Returns true when a document was deleted.
func (db *DB) DeleteDocument(ctx context.Context, source string) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return false, &StoreError{Op: fmt.Sprintf("delete document %s", source), Err: err}
	}
	return tag.RowsAffected() > 0, nil
}
