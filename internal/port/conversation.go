package port

import (
	"context"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
)

// ConversationStore persists chat sessions. The core pipeline never requires
// it; handlers use it when a session id accompanies a question.
type ConversationStore interface {
	// CreateConversation opens a new empty session for a video and returns
	// its generated session id.
	CreateConversation(ctx context.Context, videoID string) (string, error)

	// AppendMessages adds turns to an existing session.
	// Returns ErrSessionNotFound if the session does not exist.
	AppendMessages(ctx context.Context, sessionID string, messages []domain.Message) error

	// GetConversation loads a session with all its messages, oldest first.
	GetConversation(ctx context.Context, sessionID string) (*domain.Conversation, error)

	// ListConversations returns session summaries for a video, most recent
	// first, without messages.
	ListConversations(ctx context.Context, videoID string) ([]domain.Conversation, error)
}
