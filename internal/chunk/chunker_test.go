package chunk

import (
	"strings"
	"testing"

	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitExampleRanges(t *testing.T) {
	// 1500 chars at size 700 / overlap 100 -> [0,700) [600,1300) [1200,1500)
	text := strings.Repeat("a", 1500)

	chunks, err := Split("vid", text, 700, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 700, chunks[0].CharEnd)
	assert.Equal(t, 600, chunks[1].CharStart)
	assert.Equal(t, 1300, chunks[1].CharEnd)
	assert.Equal(t, 1200, chunks[2].CharStart)
	assert.Equal(t, 1500, chunks[2].CharEnd)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "vid", c.VideoID)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks, err := Split("vid", "hello world", 700, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 11, chunks[0].CharEnd)
}

func TestSplitExactMultiple(t *testing.T) {
	// Text ending exactly on a window boundary must not produce a trailing
	// empty chunk.
	text := strings.Repeat("x", 1300) // 700 + one step of 600

	chunks, err := Split("vid", text, 700, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1300, chunks[1].CharEnd)
	assert.NotEmpty(t, chunks[1].Text)
}

func TestSplitCoverageReconstruction(t *testing.T) {
	// Dropping the declared overlap from every chunk after the first must
	// reconstruct the original text exactly.
	cases := []struct {
		name          string
		textLen       int
		size, overlap int
	}{
		{"no remainder", 1300, 700, 100},
		{"remainder", 1500, 700, 100},
		{"zero overlap", 1000, 250, 0},
		{"tiny windows", 97, 10, 3},
		{"single chunk", 50, 700, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := buildText(tc.textLen)
			chunks, err := Split("vid", text, tc.size, tc.overlap)
			require.NoError(t, err)

			var sb strings.Builder
			for i, c := range chunks {
				r := []rune(c.Text)
				if i == 0 {
					sb.WriteString(c.Text)
				} else {
					sb.WriteString(string(r[tc.overlap:]))
				}
			}
			assert.Equal(t, text, sb.String())
		})
	}
}

func TestSplitConsecutiveOverlap(t *testing.T) {
	text := buildText(2000)
	chunks, err := Split("vid", text, 300, 70)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		tail := string(prev[len(prev)-70:])
		var head string
		if len(cur) >= 70 {
			head = string(cur[:70])
		} else {
			// Final truncated chunk may be shorter than the overlap; it must
			// still be a suffix of the previous chunk's tail region.
			head = string(cur)
			assert.True(t, strings.HasSuffix(tail, head) || strings.HasPrefix(tail, head))
			continue
		}
		assert.Equal(t, tail, head, "chunks %d/%d share exactly the overlap", i-1, i)
	}
}

func TestSplitMultibyteRunes(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30) // 360 runes, multi-byte
	chunks, err := Split("vid", text, 100, 20)
	require.NoError(t, err)

	runes := []rune(text)
	for _, c := range chunks {
		assert.Equal(t, string(runes[c.CharStart:c.CharEnd]), c.Text)
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, len(runes), last.CharEnd)
}

func TestSplitInvalidConfig(t *testing.T) {
	cases := []struct {
		name          string
		text          string
		size, overlap int
	}{
		{"zero size", "abc", 0, 0},
		{"negative size", "abc", -1, 0},
		{"negative overlap", "abc", 10, -1},
		{"overlap equals size", "abc", 10, 10},
		{"overlap exceeds size", "abc", 10, 15},
		{"empty text", "", 10, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split("vid", tc.text, tc.size, tc.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, port.ErrInvalidChunkConfig)
		})
	}
}

func TestTexts(t *testing.T) {
	chunks, err := Split("vid", buildText(1500), 700, 100)
	require.NoError(t, err)

	texts := Texts(chunks)
	require.Len(t, texts, len(chunks))
	for i := range texts {
		assert.Equal(t, chunks[i].Text, texts[i])
	}
}

// buildText produces a deterministic non-repeating string of n runes so
// overlap checks cannot pass by accident.
func buildText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 "
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[(i*7+i/13)%len(alphabet)])
	}
	return sb.String()
}
