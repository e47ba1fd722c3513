package domain

// EmbeddingRecord is a vectorized transcript chunk as persisted in the vector
// store. Records are keyed by (VideoID, ChunkIndex); the vector dimension is
// fixed per collection.
type EmbeddingRecord struct {
	VideoID    string    `json:"video_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"-"`
}

// ScoredChunk is returned by similarity search. Results are ordered by
// descending Score, ties broken by ascending ChunkIndex.
type ScoredChunk struct {
	VideoID    string  `json:"video_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}
