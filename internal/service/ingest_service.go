package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/go-video-rag-ollama/internal/chunk"
	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
)

// IngestStatus is the outcome of an ingestion attempt.
type IngestStatus string

const (
	StatusAlreadyPresent IngestStatus = "already_present"
	StatusIngested       IngestStatus = "ingested"
	StatusFailed         IngestStatus = "failed"
)

// IngestService ties transcript fetch, chunking, embedding, and vector
// storage together for one video at a time. Stateless: all persisted state
// lives in the vector store.
type IngestService struct {
	transcripts port.TranscriptProvider
	ai          port.AIProvider
	store       port.VectorStore
	collection  string
	language    string
	chunkSize   int
	overlap     int
}

// NewIngestService creates an ingestion orchestrator. Zero chunking values
// fall back to the defaults (700/100).
func NewIngestService(transcripts port.TranscriptProvider, ai port.AIProvider, store port.VectorStore, collection, language string, chunkSize, overlap int) *IngestService {
	if chunkSize <= 0 {
		chunkSize = chunk.DefaultSize
		overlap = chunk.DefaultOverlap
	}
	return &IngestService{
		transcripts: transcripts,
		ai:          ai,
		store:       store,
		collection:  collection,
		language:    language,
		chunkSize:   chunkSize,
		overlap:     overlap,
	}
}

// IngestIfNeeded indexes the video's transcript unless it is already
// indexed. The upsert is deferred until every chunk has been embedded, so a
// failure at any step leaves the store unchanged for this video.
func (s *IngestService) IngestIfNeeded(ctx context.Context, videoID string) (IngestStatus, error) {
	present, err := s.store.HasVideo(ctx, s.collection, videoID)
	if err != nil {
		return StatusFailed, fmt.Errorf("check video %s: %w", videoID, err)
	}
	if present {
		slog.Info("video already indexed", "video_id", videoID)
		return StatusAlreadyPresent, nil
	}

	if err := s.ingest(ctx, videoID); err != nil {
		return StatusFailed, err
	}
	return StatusIngested, nil
}

// Reingest drops the video's records and indexes the transcript again, for
// refreshed or corrected transcripts.
func (s *IngestService) Reingest(ctx context.Context, videoID string) (IngestStatus, error) {
	if err := s.store.DeleteVideo(ctx, s.collection, videoID); err != nil {
		return StatusFailed, fmt.Errorf("delete video %s: %w", videoID, err)
	}
	if err := s.ingest(ctx, videoID); err != nil {
		return StatusFailed, err
	}
	return StatusIngested, nil
}

func (s *IngestService) ingest(ctx context.Context, videoID string) error {
	transcript, err := s.transcripts.Fetch(ctx, videoID, s.language)
	if err != nil {
		return fmt.Errorf("fetch transcript for video %s: %w", videoID, err)
	}
	slog.Info("transcript fetched", "video_id", videoID, "chars", len(transcript.Text), "language", transcript.Language)

	chunks, err := chunk.Split(videoID, transcript.Text, s.chunkSize, s.overlap)
	if err != nil {
		return fmt.Errorf("chunk transcript for video %s: %w", videoID, err)
	}

	vectors, err := s.ai.EmbedBatch(ctx, chunk.Texts(chunks))
	if err != nil {
		return fmt.Errorf("embed chunks for video %s: %w", videoID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks for video %s: got %d vectors for %d chunks", videoID, len(vectors), len(chunks))
	}

	records := make([]domain.EmbeddingRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.EmbeddingRecord{
			VideoID:    c.VideoID,
			ChunkIndex: c.Index,
			Text:       c.Text,
			Vector:     vectors[i],
		}
	}

	// Single atomic batch: the video becomes searchable all at once.
	if err := s.store.Upsert(ctx, s.collection, records); err != nil {
		return fmt.Errorf("store chunks for video %s: %w", videoID, err)
	}

	slog.Info("video ingested", "video_id", videoID, "chunks", len(records))
	return nil
}
