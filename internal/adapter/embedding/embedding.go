// Package embedding provides the embedders selectable through config.
package embedding

import (
	"fmt"

	"ragchat/config"
	"ragchat/internal/port"
)

// New creates the embedder named by cfg.Provider.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	var (
		embedder port.Embedder
		err      error
	)

	switch cfg.Provider {
	case "openai", "":
		embedder, err = NewOpenAIEmbedder(config.APIKey(cfg.APIKeyEnv), cfg.Model, cfg.BaseURL, cfg.Dimension)
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		embedder, err = NewOpenAIEmbedder("ollama", cfg.Model, baseURL, cfg.Dimension)
	case "hash":
		embedder = NewHashEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
