package store

import (
	"math"
	"sort"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
)

// cosineSimilarity returns the cosine of the angle between two vectors, or 0
// for mismatched lengths or zero vectors. Used by the memory and SQLite
// backends; Postgres computes it server-side via pgvector.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankChunks sorts by descending score, ties by ascending chunk index, and
// truncates to topK. Shared by the brute-force backends.
func rankChunks(results []domain.ScoredChunk, topK int) []domain.ScoredChunk {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
