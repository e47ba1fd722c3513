package chunk

import (
	"fmt"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
)

// Default chunking policy: each chunk plus neighbor context fits comfortably
// inside the embedding model's input limit while keeping semantic continuity
// across chunk boundaries.
const (
	DefaultSize    = 700
	DefaultOverlap = 100
)

// Split cuts text into overlapping windows of at most size characters, each
// consecutive pair sharing exactly overlap characters. The window start
// advances by size-overlap per step; the final window is truncated to the
// remaining text. Offsets are rune-based so multi-byte transcripts never
// split mid-character.
//
// Requires 0 <= overlap < size and non-empty text; violations return
// port.ErrInvalidChunkConfig. Pure function.
func Split(videoID, text string, size, overlap int) ([]domain.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", port.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < size (%d)", port.ErrInvalidChunkConfig, overlap, size)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", port.ErrInvalidChunkConfig)
	}

	runes := []rune(text)
	step := size - overlap

	var chunks []domain.Chunk
	for start := 0; ; start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			VideoID:   videoID,
			Index:     len(chunks),
			Text:      string(runes[start:end]),
			CharStart: start,
			CharEnd:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// Texts projects chunks onto their text, in chunk order. Convenience for
// feeding the embedder.
func Texts(chunks []domain.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
