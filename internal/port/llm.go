package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate produces a completion for the given system and user prompts.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// GenerateOptions configures a single generation call.
type GenerateOptions struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
	MaxTokens   int
}
