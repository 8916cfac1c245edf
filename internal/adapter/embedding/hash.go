package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"ragchat/internal/adapter/analyzer"
)

// HashEmbedder maps text to a signed, L2-normalized bag of hashed terms.
// It is deterministic and needs no network, which makes it the embedder for
// tests and offline runs. Texts sharing vocabulary score high under cosine.
type HashEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	v := make([]float32, e.dimension)
	for _, term := range e.tokenizer.Tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(term))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dimension))
		if sum&(1<<63) != 0 {
			v[idx]--
		} else {
			v[idx]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}
