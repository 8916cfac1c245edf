package usecase

import (
	"context"
	"errors"
	"fmt"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// RetrieveUseCase embeds a query and searches the loaded vector index.
// It satisfies port.Retriever.
type RetrieveUseCase struct {
	embedder port.Embedder
	index    port.VectorIndex
}

// NewRetrieveUseCase creates a new retrieve use case. The embedder must be the
// model that built index.
func NewRetrieveUseCase(embedder port.Embedder, index port.VectorIndex) (*RetrieveUseCase, error) {
	model := index.Model()
	if embedder.ModelName() != model.Name || embedder.Dimension() != model.Dimension {
		return nil, fmt.Errorf("%w: index built with %s/%d, embedder is %s/%d",
			domain.ErrModelMismatch, model.Name, model.Dimension, embedder.ModelName(), embedder.Dimension())
	}
	return &RetrieveUseCase{embedder: embedder, index: index}, nil
}

// Search returns the k chunks most similar to query, best first.
func (u *RetrieveUseCase) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	vectors, err := u.embedder.Embed(ctx, []string{query})
	if err != nil {
		if !errors.Is(err, domain.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 query", domain.ErrEmbedding, len(vectors))
	}

	return u.index.Search(vectors[0], k)
}

// ChunkResult is a simplified result for CLI output.
type ChunkResult struct {
	Rank    int     `json:"rank"`
	Source  string  `json:"source"`
	Ordinal int     `json:"ordinal"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// ToChunkResults converts scored chunks to CLI results.
func ToChunkResults(chunks []domain.ScoredChunk) []ChunkResult {
	results := make([]ChunkResult, len(chunks))
	for i, c := range chunks {
		results[i] = ChunkResult{
			Rank:    i + 1,
			Source:  c.Chunk.Source,
			Ordinal: c.Chunk.Ordinal,
			Score:   c.Score,
			Text:    c.Chunk.Text,
		}
	}
	return results
}
