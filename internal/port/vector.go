package port

import (
	"context"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
)

// VectorStore persists embedding records in named collections and supports
// nearest-neighbor search filtered by video. Records are keyed by
// (video_id, chunk_index); concurrent upserts to the same key are
// last-writer-wins. Upsert is atomic per call: a batch is either fully
// visible to subsequent searches or not at all.
type VectorStore interface {
	// EnsureCollection creates the collection if absent. Idempotent; returns
	// ErrSchemaConflict if an existing collection has a different dimension.
	// The distance metric is cosine for all collections.
	EnsureCollection(ctx context.Context, collection string, dim int) error

	// Upsert inserts or replaces records keyed by (video_id, chunk_index),
	// all-or-nothing.
	Upsert(ctx context.Context, collection string, records []domain.EmbeddingRecord) error

	// Search returns up to topK records for videoID ranked by descending
	// cosine similarity, ties broken by ascending chunk index. Fewer matches
	// than topK is not an error.
	Search(ctx context.Context, collection string, queryVector []float32, topK int, videoID string) ([]domain.ScoredChunk, error)

	// HasVideo reports whether at least one record exists for videoID.
	HasVideo(ctx context.Context, collection, videoID string) (bool, error)

	// CountVideo returns the number of records stored for videoID.
	CountVideo(ctx context.Context, collection, videoID string) (int, error)

	// DeleteVideo removes all records for videoID.
	DeleteVideo(ctx context.Context, collection, videoID string) error
}
