package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ragchat/internal/domain"
)

const maxBatch = 100

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
// The client never retries: a failed call surfaces as ErrEmbedding.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

func NewOpenAIEmbedder(apiKey, model, baseURL string, dimension int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is empty")
	}
	if dimension <= 0 {
		dimension = knownDimension(model)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     model,
		dimension: dimension,
	}, nil
}

func knownDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 1536
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatch {
		end := i + maxBatch
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}
	// Only the v3 models accept a requested dimension.
	if strings.HasPrefix(e.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbedding, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", domain.ErrEmbedding, idx)
		}
		if len(data.Embedding) != e.dimension {
			return nil, fmt.Errorf("%w: expected dimension %d, got %d", domain.ErrEmbedding, e.dimension, len(data.Embedding))
		}
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		vectors[idx] = vector
	}

	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: missing embedding for input %d", domain.ErrEmbedding, i)
		}
	}

	return vectors, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
