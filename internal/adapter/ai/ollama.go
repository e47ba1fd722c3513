package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
)

// Embed requests are retried this many times before the failure surfaces as
// port.ErrEmbeddingUnavailable.
const embedMaxAttempts = 3

// OllamaEndpointConfig holds the configuration for a single Ollama endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. bge-m3, qwen3
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaProvider implements port.AIProvider using the Ollama REST API.
// Supports separate endpoints for embed vs chat (different URLs, models, and
// tokens).
type OllamaProvider struct {
	embed      OllamaEndpointConfig
	chat       OllamaEndpointConfig
	httpClient *http.Client
	backoff    time.Duration // initial retry delay, doubled per attempt
}

// NewOllamaProvider creates a new Ollama-backed AI provider with separate
// embed/chat configs.
func NewOllamaProvider(embed, chat OllamaEndpointConfig) *OllamaProvider {
	return &OllamaProvider{
		embed:      embed,
		chat:       chat,
		httpClient: &http.Client{},
		backoff:    500 * time.Millisecond,
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.chat.Model
}

// Embed generates a vector embedding for the given text.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", port.ErrEmbeddingUnavailable)
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call. Transient
// backend failures are retried with doubling backoff before surfacing as
// port.ErrEmbeddingUnavailable.
func (o *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload := map[string]interface{}{
		"model": o.embed.Model,
		"input": texts,
	}

	body, err := o.postWithRetry(ctx, o.embed, "/api/embed", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrEmbeddingUnavailable, err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

// Chat sends an assembled prompt and returns the complete response.
func (o *OllamaProvider) Chat(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerationOptions) (string, error) {
	body, err := o.post(ctx, o.chat, "/api/chat", o.chatPayload(systemPrompt, userPrompt, opts, false))
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}

	return resp.Message.Content, nil
}

// ChatStream sends a prompt and streams the response token-by-token.
func (o *OllamaProvider) ChatStream(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerationOptions) (<-chan string, error) {
	payloadBytes, _ := json.Marshal(o.chatPayload(systemPrompt, userPrompt, opts, true))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.chat.BaseURL+"/api/chat", bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("ollama stream: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.chat.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.chat.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama stream: %w", &apiError{status: resp.StatusCode, body: string(body)})
	}

	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		decoder := json.NewDecoder(resp.Body)
		for decoder.More() {
			var chunk struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
				Done bool `json:"done"`
			}
			if err := decoder.Decode(&chunk); err != nil {
				return
			}
			if chunk.Message.Content != "" {
				select {
				case ch <- chunk.Message.Content:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
		}
	}()

	return ch, nil
}

func (o *OllamaProvider) chatPayload(systemPrompt, userPrompt string, opts domain.GenerationOptions, stream bool) map[string]interface{} {
	model := o.chat.Model
	if opts.Model != "" {
		model = opts.Model
	}
	options := map[string]interface{}{
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	return map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"options": options,
		"stream":  stream,
	}
}

// postWithRetry retries transient failures (network errors, 429, 5xx) with
// doubling backoff, honoring ctx between attempts.
func (o *OllamaProvider) postWithRetry(ctx context.Context, cfg OllamaEndpointConfig, path string, payload interface{}) ([]byte, error) {
	var lastErr error
	delay := o.backoff

	for attempt := 1; attempt <= embedMaxAttempts; attempt++ {
		body, err := o.post(ctx, cfg, path, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == embedMaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, lastErr
}

// post is a helper for POST requests to an Ollama endpoint (with optional
// bearer token).
func (o *OllamaProvider) post(ctx context.Context, cfg OllamaEndpointConfig, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &apiError{status: resp.StatusCode, body: string(body)}
	}

	return io.ReadAll(resp.Body)
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("ollama API error (%d): %s", e.status, e.body)
}

func isRetryable(err error) bool {
	if apiErr, ok := err.(*apiError); ok {
		return apiErr.status == http.StatusTooManyRequests || apiErr.status >= 500
	}
	// Network-level failures (connection refused, timeouts) are retryable.
	return true
}
