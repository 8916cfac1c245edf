package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Document is the raw text of one source page as returned by a fetcher.
type Document struct {
	ID      string
	Source  string
	Title   string
	Content string
}

// DocumentID derives a stable document ID from its source identifier.
func DocumentID(source string) string {
	hash := sha256.Sum256([]byte(source))
	return hex.EncodeToString(hash[:8])
}

// Chunk is a bounded span of a single document. Offset is the rune offset of
// the span inside the document content.
type Chunk struct {
	ID      string
	DocID   string
	Source  string
	Ordinal int
	Offset  int
	Text    string
}

// Entry pairs a chunk with its embedding vector.
type Entry struct {
	Chunk  Chunk
	Vector []float32
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Turn is one chat request. ChatHistory is an opaque, caller-formatted transcript.
type Turn struct {
	Question    string `json:"question"`
	ChatHistory string `json:"chat_history"`
}

type SourceRef struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Answer is the result of one chain invocation.
type Answer struct {
	Text               string      `json:"answer"`
	StandaloneQuestion string      `json:"standalone_question"`
	Sources            []SourceRef `json:"sources,omitempty"`
}

// ModelInfo identifies the embedding model that produced an index. Vectors
// are only comparable between identical identities.
type ModelInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	RunID     string         `json:"run_id"`
	Pages     int            `json:"pages"`
	Chunks    int            `json:"chunks"`
	PerSource map[string]int `json:"per_source"`
	Model     ModelInfo      `json:"model"`
	Path      string         `json:"path"`
	Duration  time.Duration  `json:"duration"`
}

// JoinContext concatenates chunk texts in rank order separated by a blank line.
func JoinContext(chunks []ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}
