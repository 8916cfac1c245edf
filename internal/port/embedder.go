package port

import (
	"context"

	"ragchat/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex is a read-only nearest-neighbor index over chunk embeddings.
type VectorIndex interface {
	// Search returns the k entries most similar to query, best first.
	Search(query []float32, k int) ([]domain.ScoredChunk, error)

	// Len returns the number of indexed entries.
	Len() int

	// Model returns the identity of the embedding model that built the index.
	Model() domain.ModelInfo
}
