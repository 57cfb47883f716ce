package rag

import (
	"sort"

	"github.com/google/uuid"

	"github.com/clarion-ai/cli/internal/db"
)

// ScoredChunk is one ranked retrieval result with its fused score and the
// normalized sub-query scores it was built from.
type ScoredChunk struct {
	Chunk       *db.Chunk
	Score       float64
	VectorScore float64
	TextScore   float64
}

// normalizeScores min-max normalizes a sub-query's scores to [0,1] within
// that result set. When all scores are equal every member gets 1, so a
// single-candidate set still outranks absent chunks.
func normalizeScores(results []*db.SearchResult) map[uuid.UUID]float64 {
	normalized := make(map[uuid.UUID]float64, len(results))
	if len(results) == 0 {
		return normalized
	}

	minScore, maxScore := results[0].Score, results[0].Score
	for _, r := range results {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	span := maxScore - minScore
	for _, r := range results {
		if span == 0 {
			normalized[r.Chunk.ID] = 1
		} else {
			normalized[r.Chunk.ID] = (r.Score - minScore) / span
		}
	}
	return normalized
}

// fuseResults merges the vector and full-text candidate sets under a
// weighted sum: alpha*vector + (1-alpha)*text, with 0 for a missing
// component. Ties break by chunk sequence index (earlier wins), then by
// document id, so identical inputs always produce identical rankings.
func fuseResults(vector, text []*db.SearchResult, alpha float64) []ScoredChunk {
	vecScores := normalizeScores(vector)
	textScores := normalizeScores(text)

	byID := make(map[uuid.UUID]*db.Chunk, len(vector)+len(text))
	for _, r := range vector {
		byID[r.Chunk.ID] = r.Chunk
	}
	for _, r := range text {
		if _, ok := byID[r.Chunk.ID]; !ok {
			byID[r.Chunk.ID] = r.Chunk
		}
	}

	fused := make([]ScoredChunk, 0, len(byID))
	for id, chunk := range byID {
		vs := vecScores[id]
		ts := textScores[id]
		fused = append(fused, ScoredChunk{
			Chunk:       chunk,
			Score:       alpha*vs + (1-alpha)*ts,
			VectorScore: vs,
			TextScore:   ts,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		if fused[i].Chunk.Seq != fused[j].Chunk.Seq {
			return fused[i].Chunk.Seq < fused[j].Chunk.Seq
		}
		return fused[i].Chunk.DocumentID.String() < fused[j].Chunk.DocumentID.String()
	})
	return fused
}
