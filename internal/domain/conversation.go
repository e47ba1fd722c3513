package domain

import (
	"fmt"
	"time"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Conversation is a persisted chat session about one video.
type Conversation struct {
	SessionID string    `json:"session_id"`
	VideoID   string    `json:"video_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationOptions configures the language-model call that produces the
// final answer. Validated once at the boundary, before prompt assembly.
type GenerationOptions struct {
	Model       string  `json:"model"`       // empty = provider default
	Temperature float64 `json:"temperature"` // 0..2, lower = more deterministic
	MaxTokens   int     `json:"max_tokens"`  // upper bound on answer length
}

// DefaultGenerationOptions mirrors the defaults of the generation pipeline.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{Temperature: 0.3, MaxTokens: 1000}
}

// Validate checks option ranges. Zero values are filled with defaults.
func (o *GenerationOptions) Validate() error {
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0,2]", o.Temperature)
	}
	if o.MaxTokens < 0 {
		return fmt.Errorf("max_tokens %d must be positive", o.MaxTokens)
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 1000
	}
	return nil
}
