package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteFixture(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteEnsureCollection(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteFixture(t)

	require.NoError(t, s.EnsureCollection(ctx, "c", 3))
	require.NoError(t, s.EnsureCollection(ctx, "c", 3))

	err := s.EnsureCollection(ctx, "c", 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrSchemaConflict)
}

func TestSQLiteUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteFixture(t)
	require.NoError(t, s.EnsureCollection(ctx, "c", 2))

	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{
		record("v1", 0, "close match", 1, 0),
		record("v1", 1, "far match", 0, 1),
		record("v2", 0, "other video", 1, 0),
	}))

	results, err := s.Search(ctx, "c", []float32{1, 0}, 5, "v1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close match", results[0].Text)
	assert.Greater(t, results[0].Score, results[1].Score)
	for _, r := range results {
		assert.Equal(t, "v1", r.VideoID)
	}
}

func TestSQLiteUpsertReplacesByKey(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteFixture(t)
	require.NoError(t, s.EnsureCollection(ctx, "c", 2))

	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{record("v1", 0, "old", 1, 0)}))
	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{record("v1", 0, "new", 0, 1)}))

	count, err := s.CountVideo(ctx, "c", "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.Search(ctx, "c", []float32{0, 1}, 1, "v1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Text)
}

func TestSQLiteUpsertDimensionCheck(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteFixture(t)
	require.NoError(t, s.EnsureCollection(ctx, "c", 3))

	err := s.Upsert(ctx, "c", []domain.EmbeddingRecord{record("v1", 0, "wrong", 1, 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrSchemaConflict)

	has, err := s.HasVideo(ctx, "c", "v1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSQLiteDeleteVideo(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteFixture(t)
	require.NoError(t, s.EnsureCollection(ctx, "c", 2))
	require.NoError(t, s.Upsert(ctx, "c", []domain.EmbeddingRecord{
		record("v1", 0, "a", 1, 0),
		record("v2", 0, "b", 0, 1),
	}))

	require.NoError(t, s.DeleteVideo(ctx, "c", "v1"))

	has, err := s.HasVideo(ctx, "c", "v1")
	require.NoError(t, err)
	assert.False(t, has)

	count, err := s.CountVideo(ctx, "c", "v2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	v := []float32{0.5, -1.25, 3.5, 0}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
}
