package handler

import (
	"bufio"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/arturoeanton/go-video-rag-ollama/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ChatHandler handles grounded Q&A over an indexed video.
type ChatHandler struct {
	rag           *service.RAGService
	conversations port.ConversationStore // nil when the backend has no relational store
	defaults      domain.GenerationOptions
}

// NewChatHandler creates a new chat handler. The defaults come from config
// and apply whenever a request leaves temperature or max_tokens unset.
func NewChatHandler(rag *service.RAGService, conversations port.ConversationStore, defaults domain.GenerationOptions) *ChatHandler {
	return &ChatHandler{rag: rag, conversations: conversations, defaults: defaults}
}

// Register sets up chat and conversation routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/videos/:id/ask", h.Ask)
	router.Post("/videos/:id/ask/stream", h.AskStream)

	if h.conversations != nil {
		router.Post("/videos/:id/conversations", h.CreateConversation)
		router.Get("/videos/:id/conversations", h.ListConversations)
		router.Get("/conversations/:session", h.GetConversation)
	}
}

type askRequest struct {
	Question    string           `json:"question"`
	SessionID   string           `json:"session_id"`
	History     []domain.Message `json:"history"`
	TopK        int              `json:"top_k"`
	Model       string           `json:"model"`
	Temperature *float64         `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

// Ask answers a question about a video, grounded in its transcript.
func (h *ChatHandler) Ask(c fiber.Ctx) error {
	videoID := c.Params("id")

	var body askRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	history, err := h.resolveHistory(c, body)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	answer, sources, err := h.rag.Ask(c.Context(), videoID, body.Question, history, h.generationOptions(body))
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	if body.SessionID != "" && h.conversations != nil {
		turns := []domain.Message{
			{Role: "user", Content: body.Question},
			{Role: "assistant", Content: answer},
		}
		if err := h.conversations.AppendMessages(c.Context(), body.SessionID, turns); err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.JSON(fiber.Map{
		"video_id": videoID,
		"answer":   answer,
		"sources":  sources,
	})
}

// AskStream answers a question with a plain-text streamed body.
func (h *ChatHandler) AskStream(c fiber.Ctx) error {
	videoID := c.Params("id")

	var body askRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	history, err := h.resolveHistory(c, body)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	stream, _, err := h.rag.AskStream(c.Context(), videoID, body.Question, history, h.generationOptions(body))
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "text/plain; charset=utf-8")
	c.Set("X-Video-ID", videoID)
	return c.SendStreamWriter(func(w *bufio.Writer) {
		for token := range stream {
			if _, err := w.WriteString(token); err != nil {
				return
			}
			_ = w.Flush()
		}
	})
}

// CreateConversation opens a persisted chat session for a video.
func (h *ChatHandler) CreateConversation(c fiber.Ctx) error {
	sessionID, err := h.conversations.CreateConversation(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_id": sessionID})
}

// ListConversations lists a video's chat sessions, most recent first.
func (h *ChatHandler) ListConversations(c fiber.Ctx) error {
	convs, err := h.conversations.ListConversations(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// GetConversation loads one session with its full message history.
func (h *ChatHandler) GetConversation(c fiber.Ctx) error {
	conv, err := h.conversations.GetConversation(c.Context(), c.Params("session"))
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(conv)
}

// resolveHistory prefers explicit history from the request; otherwise loads
// it from the persisted session when one is given.
func (h *ChatHandler) resolveHistory(c fiber.Ctx, body askRequest) ([]domain.Message, error) {
	if len(body.History) > 0 || body.SessionID == "" || h.conversations == nil {
		return body.History, nil
	}
	conv, err := h.conversations.GetConversation(c.Context(), body.SessionID)
	if err != nil {
		return nil, err
	}
	return conv.Messages, nil
}

func (h *ChatHandler) generationOptions(body askRequest) domain.GenerationOptions {
	opts := h.defaults
	opts.Model = body.Model
	if body.Temperature != nil {
		opts.Temperature = *body.Temperature
	}
	if body.MaxTokens > 0 {
		opts.MaxTokens = body.MaxTokens
	}
	return opts
}
