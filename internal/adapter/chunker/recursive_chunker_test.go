package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

const sampleText = `Promtior is a technology consulting company founded in 2023.

It specializes in the adoption of generative AI solutions for businesses. The team builds GenAI products, trains staff and designs end-to-end strategies so that organizations can move from prototypes to production.

Services include:
- GenAI product delivery for companies of every size.
- Department-level adoption programs with hands-on workshops.
- Custom assistants, retrieval systems and document automation.

The company works with clients across Latin America and the United States. Its founders have years of experience in software engineering and data science, and they created the firm to help customers capture the value of large language models safely.`

func newChunker(t *testing.T, size, overlap int) *RecursiveChunker {
	t.Helper()
	c, err := NewRecursiveChunker(size, overlap)
	require.NoError(t, err)
	return c
}

func TestRecursiveChunker_Basic(t *testing.T) {
	c := newChunker(t, 200, 20)
	doc := domain.Document{ID: "doc1", Source: "https://example.com", Content: sampleText}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.NotEmpty(t, ch.ID)
		assert.Equal(t, "doc1", ch.DocID)
		assert.Equal(t, "https://example.com", ch.Source)
		assert.Equal(t, i, ch.Ordinal)
		assert.NotEmpty(t, ch.Text)
	}
}

func TestRecursiveChunker_Reconstructs(t *testing.T) {
	inputs := map[string]string{
		"prose":     sampleText,
		"no spaces": strings.Repeat("x", 1234),
		"unicode":   strings.Repeat("Consultoría en IA generativa. ñandú café ", 40),
		"short":     "hello",
	}
	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			c := newChunker(t, 120, 15)
			chunks, err := c.Chunk(domain.Document{ID: "d", Content: text})
			require.NoError(t, err)
			assert.Equal(t, text, Reconstruct(chunks))
		})
	}
}

func TestRecursiveChunker_SizeAndOverlapBounds(t *testing.T) {
	text := strings.Repeat(sampleText+"\n\n", 5)
	c := newChunker(t, 500, 50)

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: text})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 500, "chunk %d too long", i)
		if i > 0 {
			ov := Overlap(chunks[i-1], ch)
			assert.LessOrEqual(t, ov, 50, "chunk %d overlap", i)
			assert.Greater(t, ch.Offset, chunks[i-1].Offset)
		}
	}
}

func TestRecursiveChunker_HardCutOverlap(t *testing.T) {
	c := newChunker(t, 500, 50)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: strings.Repeat("a", 1200)})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, 450, chunks[1].Offset)
	assert.Equal(t, 900, chunks[2].Offset)
	assert.Equal(t, 50, Overlap(chunks[0], chunks[1]))
	assert.Equal(t, 300, len([]rune(chunks[2].Text)))
}

func TestRecursiveChunker_PrefersParagraphs(t *testing.T) {
	first := strings.Repeat("alpha beta. ", 10)
	second := strings.Repeat("gamma delta. ", 10)
	text := first + "\n\n" + second

	c := newChunker(t, 200, 10)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: text})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"), "first chunk should end at the paragraph break: %q", chunks[0].Text)
	assert.NotContains(t, chunks[0].Text, "gamma")
}

func TestRecursiveChunker_FallsBackToWords(t *testing.T) {
	text := strings.Repeat("word ", 100)
	c := newChunker(t, 52, 5)

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: text})
	require.NoError(t, err)

	for _, ch := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(ch.Text, " "), "chunk should end on a word boundary: %q", ch.Text)
	}
}

func TestRecursiveChunker_EmptyDocument(t *testing.T) {
	c := newChunker(t, 500, 50)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "  \n\n\t "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRecursiveChunker_Deterministic(t *testing.T) {
	c := newChunker(t, 150, 20)
	doc := domain.Document{ID: "d", Content: sampleText}

	a, err := c.Chunk(doc)
	require.NoError(t, err)
	b, err := c.Chunk(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewRecursiveChunker_InvalidArgs(t *testing.T) {
	_, err := NewRecursiveChunker(0, 0)
	assert.Error(t, err)
	_, err = NewRecursiveChunker(50, 50)
	assert.Error(t, err)
	_, err = NewRecursiveChunker(50, -1)
	assert.Error(t, err)
}
