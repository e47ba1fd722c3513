package port

import (
	"context"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
)

// TranscriptProvider fetches the spoken-text transcript of a video from an
// external service. Fetch returns ErrTranscriptUnavailable (wrapped) when no
// transcript exists for the video or the provider is blocked.
type TranscriptProvider interface {
	Fetch(ctx context.Context, videoID, language string) (*domain.Transcript, error)
}
