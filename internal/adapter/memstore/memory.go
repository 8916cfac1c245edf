// Package memstore holds a loaded vector index in memory for brute-force search.
package memstore

import (
	"fmt"
	"math"
	"sort"

	"ragchat/internal/domain"
)

// MemoryIndex is an immutable, insertion-ordered set of embedded chunks.
// It is never mutated after construction, so concurrent Search calls need no locking.
type MemoryIndex struct {
	model   domain.ModelInfo
	entries []domain.Entry
	norms   []float64
}

// NewMemoryIndex builds an index over entries. Every vector must have the
// dimension recorded in model.
func NewMemoryIndex(model domain.ModelInfo, entries []domain.Entry) (*MemoryIndex, error) {
	norms := make([]float64, len(entries))
	for i, e := range entries {
		if len(e.Vector) != model.Dimension {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, want %d",
				domain.ErrIndexCorrupt, i, len(e.Vector), model.Dimension)
		}
		norms[i] = norm(e.Vector)
	}
	return &MemoryIndex{
		model:   model,
		entries: append([]domain.Entry(nil), entries...),
		norms:   norms,
	}, nil
}

// Search returns the min(k, Len()) entries most similar to query by cosine
// similarity, best first. Equal scores keep insertion order.
func (m *MemoryIndex) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if len(query) != m.model.Dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d: %w",
			len(query), m.model.Dimension, domain.ErrModelMismatch)
	}
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}

	qNorm := norm(query)
	results := make([]domain.ScoredChunk, len(m.entries))
	for i, e := range m.entries {
		results[i] = domain.ScoredChunk{
			Chunk: e.Chunk,
			Score: cosine(query, e.Vector, qNorm, m.norms[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (m *MemoryIndex) Len() int {
	return len(m.entries)
}

func (m *MemoryIndex) Model() domain.ModelInfo {
	return m.model
}

// Entries returns the entries in insertion order.
func (m *MemoryIndex) Entries() []domain.Entry {
	return m.entries
}

func cosine(a, b []float32, aNorm, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
