package handler

import (
	"testing"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerationOptionsUseConfiguredDefaults(t *testing.T) {
	h := NewChatHandler(nil, nil, domain.GenerationOptions{Temperature: 0.9, MaxTokens: 256})

	opts := h.generationOptions(askRequest{Question: "q"})
	assert.InDelta(t, 0.9, opts.Temperature, 1e-9)
	assert.Equal(t, 256, opts.MaxTokens)
	assert.Empty(t, opts.Model)
}

func TestGenerationOptionsRequestOverridesDefaults(t *testing.T) {
	h := NewChatHandler(nil, nil, domain.GenerationOptions{Temperature: 0.9, MaxTokens: 256})

	temp := 0.1
	opts := h.generationOptions(askRequest{
		Question:    "q",
		Model:       "custom-model",
		Temperature: &temp,
		MaxTokens:   50,
	})
	assert.InDelta(t, 0.1, opts.Temperature, 1e-9)
	assert.Equal(t, 50, opts.MaxTokens)
	assert.Equal(t, "custom-model", opts.Model)
}

func TestGenerationOptionsZeroTemperatureOverride(t *testing.T) {
	h := NewChatHandler(nil, nil, domain.GenerationOptions{Temperature: 0.9, MaxTokens: 256})

	// An explicit 0 is a valid override, distinct from "unset".
	temp := 0.0
	opts := h.generationOptions(askRequest{Question: "q", Temperature: &temp})
	assert.Zero(t, opts.Temperature)
	assert.Equal(t, 256, opts.MaxTokens)
}
