// Package rag composes chunking, embedding, and the hybrid store into the
// two operations callers use: document ingestion and query retrieval.
package rag

import "errors"

// ErrEmptyIndex is returned when retrieval targets a collection that holds
// no chunks at all. A query that simply matches nothing returns an empty
// result list instead, which is a valid outcome, not an error.
var ErrEmptyIndex = errors.New("no chunks ingested in this collection")
