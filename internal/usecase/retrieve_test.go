package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/memstore"
	"ragchat/internal/domain"
)

func buildIndex(t *testing.T, texts ...string) (*embedding.HashEmbedder, *memstore.MemoryIndex) {
	t.Helper()
	emb := embedding.NewHashEmbedder(64)
	vectors, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)

	entries := make([]domain.Entry, len(texts))
	for i, text := range texts {
		entries[i] = domain.Entry{
			Chunk:  domain.Chunk{ID: text, Source: "https://example.com", Ordinal: i, Text: text},
			Vector: vectors[i],
		}
	}
	idx, err := memstore.NewMemoryIndex(domain.ModelInfo{Name: emb.ModelName(), Dimension: emb.Dimension()}, entries)
	require.NoError(t, err)
	return emb, idx
}

func TestRetrieve_Search(t *testing.T) {
	emb, idx := buildIndex(t,
		"Promtior was founded in 2023",
		"Promtior offers generative AI consulting",
		"The office is in Montevideo",
		"Customer support automation use case",
	)
	u, err := NewRetrieveUseCase(emb, idx)
	require.NoError(t, err)

	got, err := u.Search(context.Background(), "When was Promtior founded?", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Promtior was founded in 2023", got[0].Chunk.Text)

	again, err := u.Search(context.Background(), "When was Promtior founded?", 3)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	all, err := u.Search(context.Background(), "office", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRetrieve_ModelMismatch(t *testing.T) {
	_, idx := buildIndex(t, "a text")

	_, err := NewRetrieveUseCase(embedding.NewHashEmbedder(32), idx)
	assert.True(t, errors.Is(err, domain.ErrModelMismatch))
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	emb, idx := buildIndex(t, "a text")
	u, err := NewRetrieveUseCase(failingEmbedder{Embedder: emb, err: errors.New("timeout")}, idx)
	require.NoError(t, err)

	_, err = u.Search(context.Background(), "q", 3)
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
}

func TestToChunkResults(t *testing.T) {
	results := ToChunkResults([]domain.ScoredChunk{
		{Chunk: domain.Chunk{Source: "s1", Ordinal: 2, Text: "t1"}, Score: 0.9},
		{Chunk: domain.Chunk{Source: "s2", Ordinal: 0, Text: "t2"}, Score: 0.5},
	})
	require.Len(t, results, 2)
	assert.Equal(t, ChunkResult{Rank: 1, Source: "s1", Ordinal: 2, Score: 0.9, Text: "t1"}, results[0])
	assert.Equal(t, 2, results[1].Rank)
}
