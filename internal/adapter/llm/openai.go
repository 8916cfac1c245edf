// Package llm implements port.LLM on top of OpenAI-compatible chat completions.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"ragchat/config"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// ErrAPIKeyNotSet is returned when no API key is available for the chat model.
var ErrAPIKeyNotSet = errors.New("chat API key not set")

// OpenAIChat issues one chat completion per Generate call. There is no retry
// loop: a failed call is reported to the caller as ErrGeneration.
type OpenAIChat struct {
	client openai.Client
	model  string
}

func NewOpenAIChat(apiKey, model, baseURL string) (*OpenAIChat, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIChat{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// New creates the chat model named by cfg.Provider.
func New(cfg config.ChatConfig) (port.LLM, error) {
	switch cfg.Provider {
	case "openai", "":
		chat, err := NewOpenAIChat(config.APIKey(cfg.APIKeyEnv), cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return chat, nil
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", cfg.Provider)
	}
}

func (c *OpenAIChat) Generate(ctx context.Context, systemPrompt, userPrompt string, opts port.GenerateOptions) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %w", domain.ErrGeneration, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", domain.ErrGeneration)
	}

	return completion.Choices[0].Message.Content, nil
}

func (c *OpenAIChat) ModelName() string {
	return c.model
}
