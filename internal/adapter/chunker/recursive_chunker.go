package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"ragchat/internal/domain"
)

// DefaultSeparators are tried in order: paragraph, line, sentence, word.
// When none fits inside the window the chunk is cut at the size limit.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// RecursiveChunker splits a document into overlapping rune windows, ending
// each window at the coarsest separator that still fits. Every chunk is an
// exact span of the document content, so chunks can be stitched back together
// from their offsets.
type RecursiveChunker struct {
	size       int
	overlap    int
	separators [][]rune
}

func NewRecursiveChunker(size, overlap int) (*RecursiveChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	seps := make([][]rune, len(DefaultSeparators))
	for i, s := range DefaultSeparators {
		seps[i] = []rune(s)
	}
	return &RecursiveChunker{size: size, overlap: overlap, separators: seps}, nil
}

func (c *RecursiveChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)
	n := len(runes)

	var chunks []domain.Chunk
	start := 0

	for start < n {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.splitPoint(runes, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			ID:      generateChunkID(doc.ID, len(chunks), start),
			DocID:   doc.ID,
			Source:  doc.Source,
			Ordinal: len(chunks),
			Offset:  start,
			Text:    string(runes[start:end]),
		})

		if end == n {
			break
		}

		// end-start > overlap always holds, so next > start.
		next := end - c.overlap
		start = alignToWord(runes, next, end)
	}

	return chunks, nil
}

// splitPoint returns the cut position for the window [start, limit). The
// separator stays with the chunk it terminates. Cuts that would leave no room
// beyond the overlap are rejected so the walk always advances.
func (c *RecursiveChunker) splitPoint(runes []rune, start, limit int) int {
	for _, sep := range c.separators {
		for i := limit - len(sep); i >= start; i-- {
			cut := i + len(sep)
			if cut-start <= c.overlap {
				break
			}
			if hasPrefixAt(runes, i, sep) {
				return cut
			}
		}
	}
	return limit
}

// alignToWord moves pos forward to the start of the next word when it lands
// mid-word, staying before end. The overlap only ever shrinks.
func alignToWord(runes []rune, pos, end int) int {
	if pos == 0 || unicode.IsSpace(runes[pos-1]) {
		return pos
	}
	for i := pos; i < end; i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return pos
}

func hasPrefixAt(runes []rune, i int, sep []rune) bool {
	if i+len(sep) > len(runes) {
		return false
	}
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// Overlap returns how many leading runes of next repeat the tail of prev.
func Overlap(prev, next domain.Chunk) int {
	ov := prev.Offset + len([]rune(prev.Text)) - next.Offset
	if ov < 0 {
		return 0
	}
	return ov
}

// Reconstruct stitches consecutive chunks of one document back into its content.
func Reconstruct(chunks []domain.Chunk) string {
	var b strings.Builder
	for i, ch := range chunks {
		if i == 0 {
			b.WriteString(ch.Text)
			continue
		}
		b.WriteString(string([]rune(ch.Text)[Overlap(chunks[i-1], ch):]))
	}
	return b.String()
}

func generateChunkID(docID string, ordinal, offset int) string {
	data := fmt.Sprintf("%s:%d@%d", docID, ordinal, offset)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
