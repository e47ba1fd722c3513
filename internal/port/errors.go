package port

import "errors"

// Sentinel errors used across ports. Services wrap these with video_id and
// step context via %w; handlers map them to HTTP statuses with errors.Is.
var (
	ErrInvalidChunkConfig    = errors.New("invalid chunking configuration")
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	ErrEmbeddingUnavailable  = errors.New("embedding backend unavailable")
	ErrStoreUnavailable      = errors.New("vector store unavailable")
	ErrSchemaConflict        = errors.New("collection schema conflict")
	ErrVideoNotIndexed       = errors.New("video not indexed")
	ErrSessionNotFound       = errors.New("conversation session not found")
)
