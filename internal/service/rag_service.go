package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
)

// RAGService answers questions about an indexed video: it embeds the
// question, searches the vector store scoped to that video, assembles a
// grounded prompt, and calls the LLM. It holds no state of its own beyond
// configuration; the vector store owns all persisted records.
type RAGService struct {
	ai         port.AIProvider
	store      port.VectorStore
	collection string
	topK       int
	assembler  PromptAssembler
}

// NewRAGService creates a new RAG service. topK bounds the number of chunks
// retrieved per question.
func NewRAGService(ai port.AIProvider, store port.VectorStore, collection string, topK int, assembler PromptAssembler) *RAGService {
	if topK <= 0 {
		topK = 5
	}
	return &RAGService{ai: ai, store: store, collection: collection, topK: topK, assembler: assembler}
}

// Retrieve embeds the question and returns the topK most similar chunks of
// the given video, descending by score. Results never contain chunks of
// another video. Retrieval does not trigger ingestion.
func (s *RAGService) Retrieve(ctx context.Context, videoID, question string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		topK = s.topK
	}

	queryVector, err := s.ai.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question for video %s: %w", videoID, err)
	}

	chunks, err := s.store.Search(ctx, s.collection, queryVector, topK, videoID)
	if err != nil {
		return nil, fmt.Errorf("search video %s: %w", videoID, err)
	}
	return chunks, nil
}

// Ask runs the full question flow: retrieve, assemble, generate. It returns
// the answer together with the chunks it was grounded on. The video must
// already be indexed; Ask returns port.ErrVideoNotIndexed otherwise.
func (s *RAGService) Ask(ctx context.Context, videoID, question string, history []domain.Message, opts domain.GenerationOptions) (string, []domain.ScoredChunk, error) {
	chunks, err := s.prepare(ctx, videoID, question, &opts)
	if err != nil {
		return "", nil, err
	}

	answer, err := s.ai.Chat(ctx, SystemPrompt, s.userPrompt(question, chunks, history), opts)
	if err != nil {
		return "", nil, fmt.Errorf("generate answer for video %s: %w", videoID, err)
	}
	return answer, chunks, nil
}

// AskStream is Ask with a token-by-token streaming answer.
func (s *RAGService) AskStream(ctx context.Context, videoID, question string, history []domain.Message, opts domain.GenerationOptions) (<-chan string, []domain.ScoredChunk, error) {
	chunks, err := s.prepare(ctx, videoID, question, &opts)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.ai.ChatStream(ctx, SystemPrompt, s.userPrompt(question, chunks, history), opts)
	if err != nil {
		return nil, nil, fmt.Errorf("stream answer for video %s: %w", videoID, err)
	}
	return stream, chunks, nil
}

func (s *RAGService) prepare(ctx context.Context, videoID, question string, opts *domain.GenerationOptions) ([]domain.ScoredChunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("generation options: %w", err)
	}

	indexed, err := s.store.HasVideo(ctx, s.collection, videoID)
	if err != nil {
		return nil, fmt.Errorf("check video %s: %w", videoID, err)
	}
	if !indexed {
		return nil, fmt.Errorf("%w: %s", port.ErrVideoNotIndexed, videoID)
	}

	chunks, err := s.Retrieve(ctx, videoID, question, 0)
	if err != nil {
		return nil, err
	}

	slog.Info("retrieved chunks", "video_id", videoID, "count", len(chunks))
	return chunks, nil
}

func (s *RAGService) userPrompt(question string, chunks []domain.ScoredChunk, history []domain.Message) string {
	if len(chunks) == 0 {
		return NoContextPrompt(question)
	}
	return s.assembler.Assemble(question, chunks, history)
}
