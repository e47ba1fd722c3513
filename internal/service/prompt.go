package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
)

// SystemPrompt is the fixed instruction sent with every grounded question.
const SystemPrompt = `You are an assistant that answers questions about a YouTube video using only the transcript excerpts provided.
If the excerpts do not contain the information needed, say so clearly instead of guessing.
Structure your answer logically and be concise but complete. Quote the excerpts when asked for specifics.`

const chunkSeparator = "\n\n---\n\n"

// DefaultMaxPromptChars bounds the assembled user prompt. Roughly 3k tokens
// at 4 chars/token, leaving headroom for the answer in an 8k context.
const DefaultMaxPromptChars = 12000

// PromptAssembler builds the grounded user prompt from retrieved chunks,
// conversation history, and the current question. Pure; no external calls.
type PromptAssembler struct {
	MaxChars int // 0 = DefaultMaxPromptChars
}

// Assemble concatenates the retrieved chunk texts (in the order received,
// i.e. by descending similarity), the prior turns oldest first, and the
// question. When the result would exceed MaxChars, history is dropped oldest
// first; retrieved chunks are never truncated — grounding takes priority
// over history. MaxChars counts runes, the same unit the chunker uses.
func (a PromptAssembler) Assemble(question string, chunks []domain.ScoredChunk, history []domain.Message) string {
	maxChars := a.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var sb strings.Builder
	sb.WriteString("Transcript excerpts from the video:\n\n")
	sb.WriteString(strings.Join(texts, chunkSeparator))

	tail := "\n\nQuestion:\n" + question + "\n\nAnswer:"
	budget := maxChars - utf8.RuneCountInString(sb.String()) - utf8.RuneCountInString(tail)

	if rendered := renderHistory(history, budget); rendered != "" {
		sb.WriteString(rendered)
	}
	sb.WriteString(tail)
	return sb.String()
}

// NoContextPrompt is used when retrieval found nothing relevant.
func NoContextPrompt(question string) string {
	return fmt.Sprintf(`No relevant transcript excerpts were found for this question.

Question:
%s

Tell the user that the video transcript contains no relevant information for this question, and invite them to ask about the video's content.`, question)
}

// renderHistory fits as many of the most recent turns as the budget allows,
// rendered oldest first. Returns "" when nothing fits or history is empty.
func renderHistory(history []domain.Message, budget int) string {
	if len(history) == 0 || budget <= 0 {
		return ""
	}

	const header = "\n\nConversation so far:\n"
	budget -= utf8.RuneCountInString(header)

	lines := make([]string, 0, len(history))
	used := 0
	// Walk newest to oldest so the most recent turns survive truncation.
	for i := len(history) - 1; i >= 0; i-- {
		line := history[i].Role + ": " + history[i].Content + "\n"
		n := utf8.RuneCountInString(line)
		if used+n > budget {
			break
		}
		lines = append(lines, line)
		used += n
	}
	if len(lines) == 0 {
		return ""
	}

	// Reverse back to chronological order.
	var sb strings.Builder
	sb.WriteString(header)
	for i := len(lines) - 1; i >= 0; i-- {
		sb.WriteString(lines[i])
	}
	return sb.String()
}
