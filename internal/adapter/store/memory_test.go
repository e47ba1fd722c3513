package store

import (
	"context"
	"testing"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(videoID string, index int, text string, vector ...float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{VideoID: videoID, ChunkIndex: index, Text: text, Vector: vector}
}

func TestMemoryEnsureCollectionIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.EnsureCollection(ctx, "c", 3))
	require.NoError(t, s.EnsureCollection(ctx, "c", 3))

	err := s.EnsureCollection(ctx, "c", 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrSchemaConflict)
}

func TestMemoryUpsertDimensionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.EnsureCollection(ctx, "c", 3))

	err := s.Upsert(ctx, "c", []domain.EmbeddingRecord{
		record("v1", 0, "ok", 1, 0, 0),
		record("v1", 1, "wrong dim", 1, 0),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrSchemaConflict)

	// The whole batch is rejected, including the valid record.
	count, err := s.CountVideo(ctx, "c", "v1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryUpsertReplacesByKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.EnsureCollection(ctx, "c", 3))

	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{record("v1", 0, "old", 1, 0, 0)}))
	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{record("v1", 0, "new", 0, 1, 0)}))

	count, err := s.CountVideo(ctx, "c", "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.Search(ctx, "c", []float32{0, 1, 0}, 1, "v1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Text)
}

func TestMemorySearchRankingAndTieBreak(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.EnsureCollection(ctx, "c", 2))

	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{
		record("v1", 2, "tie b", 1, 1),
		record("v1", 0, "best", 1, 0),
		record("v1", 1, "tie a", 1, 1),
		record("v2", 0, "other video", 1, 0),
	}))

	results, err := s.Search(ctx, "c", []float32{1, 0}, 10, "v1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "best", results[0].Text)
	// Equal scores order by ascending chunk index.
	assert.Equal(t, 1, results[1].ChunkIndex)
	assert.Equal(t, 2, results[2].ChunkIndex)
	for _, r := range results {
		assert.Equal(t, "v1", r.VideoID)
	}
}

func TestMemorySearchFewerThanTopK(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.EnsureCollection(ctx, "c", 2))
	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{record("v1", 0, "only", 1, 0)}))

	results, err := s.Search(ctx, "c", []float32{1, 0}, 5, "v1")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMemoryHasAndDeleteVideo(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.EnsureCollection(ctx, "c", 2))
	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{
		record("v1", 0, "a", 1, 0),
		record("v1", 1, "b", 0, 1),
		record("v2", 0, "c", 1, 1),
	}))

	has, err := s.HasVideo(ctx, "c", "v1")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.DeleteVideo(ctx, "c", "v1"))

	has, err = s.HasVideo(ctx, "c", "v1")
	require.NoError(t, err)
	assert.False(t, has)

	// Other videos are untouched.
	count, err := s.CountVideo(ctx, "c", "v2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryUnknownCollection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Search(ctx, "ghost", []float32{1}, 5, "v1")
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrStoreUnavailable)
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched length", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, cosineSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}
