package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
)

type recordKey struct {
	videoID    string
	chunkIndex int
}

type memCollection struct {
	dim     int
	records map[recordKey]domain.EmbeddingRecord
}

// MemoryStore is an in-process port.VectorStore with brute-force cosine
// search. Used by tests and by ephemeral single-run deployments
// (STORE_BACKEND=memory); nothing survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

// EnsureCollection creates the collection if absent; dimension mismatches on
// an existing collection return port.ErrSchemaConflict.
func (m *MemoryStore) EnsureCollection(ctx context.Context, collection string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dimension %d must be positive", port.ErrSchemaConflict, dim)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collections[collection]; ok {
		if c.dim != dim {
			return fmt.Errorf("%w: collection %q has dimension %d, want %d",
				port.ErrSchemaConflict, collection, c.dim, dim)
		}
		return nil
	}
	m.collections[collection] = &memCollection{dim: dim, records: make(map[recordKey]domain.EmbeddingRecord)}
	return nil
}

// Upsert validates the whole batch before touching the map, so a failed call
// leaves the collection unchanged.
func (m *MemoryStore) Upsert(ctx context.Context, collection string, records []domain.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: unknown collection %q", port.ErrStoreUnavailable, collection)
	}

	for _, r := range records {
		if len(r.Vector) != c.dim {
			return fmt.Errorf("%w: record %s/%d has dimension %d, collection %q has %d",
				port.ErrSchemaConflict, r.VideoID, r.ChunkIndex, len(r.Vector), collection, c.dim)
		}
	}
	for _, r := range records {
		c.records[recordKey{r.VideoID, r.ChunkIndex}] = r
	}
	return nil
}

// Search scans the collection for videoID and ranks by cosine similarity.
func (m *MemoryStore) Search(ctx context.Context, collection string, queryVector []float32, topK int, videoID string) ([]domain.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: unknown collection %q", port.ErrStoreUnavailable, collection)
	}
	if topK <= 0 {
		return nil, nil
	}

	var results []domain.ScoredChunk
	for key, r := range c.records {
		if key.videoID != videoID {
			continue
		}
		results = append(results, domain.ScoredChunk{
			VideoID:    r.VideoID,
			ChunkIndex: r.ChunkIndex,
			Text:       r.Text,
			Score:      cosineSimilarity(queryVector, r.Vector),
		})
	}
	return rankChunks(results, topK), nil
}

// HasVideo reports whether at least one record exists for videoID.
func (m *MemoryStore) HasVideo(ctx context.Context, collection, videoID string) (bool, error) {
	count, err := m.CountVideo(ctx, collection, videoID)
	return count > 0, err
}

// CountVideo returns the number of records stored for videoID.
func (m *MemoryStore) CountVideo(ctx context.Context, collection, videoID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return 0, fmt.Errorf("%w: unknown collection %q", port.ErrStoreUnavailable, collection)
	}

	count := 0
	for key := range c.records {
		if key.videoID == videoID {
			count++
		}
	}
	return count, nil
}

// DeleteVideo removes all records for videoID.
func (m *MemoryStore) DeleteVideo(ctx context.Context, collection, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: unknown collection %q", port.ErrStoreUnavailable, collection)
	}
	for key := range c.records {
		if key.videoID == videoID {
			delete(c.records, key)
		}
	}
	return nil
}
