package port

import (
	"context"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
)

// AIProvider abstracts the AI/LLM backend for embeddings and chat completions.
// Implementations can target Ollama, OpenAI, or any compatible API.
type AIProvider interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order-preserving,
	// one vector per input. Batching against the backend is an internal
	// detail; callers must not assume any particular batch size.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Chat sends an assembled prompt and returns the complete LLM response.
	Chat(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerationOptions) (string, error)

	// ChatStream sends a prompt and streams the response token-by-token via
	// channel. The channel is closed when generation finishes or ctx ends.
	ChatStream(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerationOptions) (<-chan string, error)
}
