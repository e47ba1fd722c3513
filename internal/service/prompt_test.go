package service

import (
	"strings"
	"testing"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(texts ...string) []domain.ScoredChunk {
	chunks := make([]domain.ScoredChunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.ScoredChunk{VideoID: "vid", ChunkIndex: i, Text: t, Score: 1 - float64(i)*0.1}
	}
	return chunks
}

func TestAssembleOrdering(t *testing.T) {
	a := PromptAssembler{}
	chunks := scored("most relevant", "second", "third")
	history := []domain.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}

	prompt := a.Assemble("what now?", chunks, history)

	// Chunks appear in the order received, separated by ---.
	first := strings.Index(prompt, "most relevant")
	second := strings.Index(prompt, "second")
	third := strings.Index(prompt, "third")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Contains(t, prompt, "---")

	// History oldest first, after chunks, before the question.
	q := strings.Index(prompt, "earlier question")
	ans := strings.Index(prompt, "earlier answer")
	question := strings.Index(prompt, "what now?")
	assert.Less(t, third, q)
	assert.Less(t, q, ans)
	assert.Less(t, ans, question)
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
}

func TestAssembleDeterministic(t *testing.T) {
	a := PromptAssembler{}
	chunks := scored("alpha", "beta")
	history := []domain.Message{{Role: "user", Content: "hi"}}

	p1 := a.Assemble("q", chunks, history)
	p2 := a.Assemble("q", chunks, history)
	assert.Equal(t, p1, p2)
}

func TestAssembleTruncatesHistoryOldestFirst(t *testing.T) {
	chunks := scored(strings.Repeat("c", 200))
	history := []domain.Message{
		{Role: "user", Content: "oldest " + strings.Repeat("x", 80)},
		{Role: "assistant", Content: "middle " + strings.Repeat("y", 80)},
		{Role: "user", Content: "newest " + strings.Repeat("z", 80)},
	}

	// Budget fits the chunk, the question, and roughly one history turn.
	a := PromptAssembler{MaxChars: 450}
	prompt := a.Assemble("q", chunks, history)

	assert.Contains(t, prompt, "newest")
	assert.NotContains(t, prompt, "oldest")
	// The grounding chunk is never dropped, whatever the budget.
	assert.Contains(t, prompt, strings.Repeat("c", 200))
}

func TestAssembleChunksNeverTruncated(t *testing.T) {
	big := strings.Repeat("g", 5000)
	a := PromptAssembler{MaxChars: 100} // budget far below the chunk size
	prompt := a.Assemble("q", scored(big), nil)

	assert.Contains(t, prompt, big)
	assert.Contains(t, prompt, "q")
}

func TestAssembleBudgetCountsRunes(t *testing.T) {
	// 60 CJK runes, 180 bytes. A byte-measured budget would drop this turn
	// even though it fits the rune budget.
	turn := strings.Repeat("日", 60)
	history := []domain.Message{{Role: "user", Content: turn}}

	a := PromptAssembler{MaxChars: 160}
	prompt := a.Assemble("q", scored("ctx"), history)

	assert.Contains(t, prompt, turn)
	assert.LessOrEqual(t, len([]rune(prompt)), 160)
}

func TestAssembleNoHistorySection(t *testing.T) {
	a := PromptAssembler{}
	prompt := a.Assemble("q", scored("chunk"), nil)
	assert.NotContains(t, prompt, "Conversation so far")
}

func TestNoContextPrompt(t *testing.T) {
	prompt := NoContextPrompt("what is discussed?")
	assert.Contains(t, prompt, "what is discussed?")
	assert.Contains(t, prompt, "No relevant transcript excerpts")
}
