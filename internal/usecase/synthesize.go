package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"ragchat/internal/port"
	"ragchat/internal/prompt"
)

// FallbackPhrase is the exact reply used when the context cannot answer a question.
func FallbackPhrase(organization string) string {
	return fmt.Sprintf("I don't have that information about %s.", organization)
}

// SynthesizeUseCase generates an answer grounded in retrieved context.
type SynthesizeUseCase struct {
	llm          port.LLM
	organization string
	fallback     string
	maxTokens    int
	temperature  float64
}

func NewSynthesizeUseCase(llm port.LLM, organization string, temperature float64, maxTokens int) *SynthesizeUseCase {
	return &SynthesizeUseCase{
		llm:          llm,
		organization: organization,
		fallback:     FallbackPhrase(organization),
		maxTokens:    maxTokens,
		temperature:  temperature,
	}
}

// Fallback returns the fallback phrase for the configured organization.
func (u *SynthesizeUseCase) Fallback() string {
	return u.fallback
}

// Synthesize answers question from the retrieved context. chatHistory is passed through so
// the model can keep the conversational register.
func (u *SynthesizeUseCase) Synthesize(ctx context.Context, retrieved, chatHistory, question string) (string, error) {
	system, err := prompt.AnswerSystem.Render(prompt.AnswerSystemData{
		Organization: u.organization,
		Fallback:     u.fallback,
	})
	if err != nil {
		return "", err
	}

	user, err := prompt.Answer.Render(prompt.AnswerData{
		Context:     retrieved,
		ChatHistory: chatHistory,
		Question:    question,
	})
	if err != nil {
		return "", err
	}

	out, err := u.llm.Generate(ctx, system, user, port.GenerateOptions{
		Temperature: u.temperature,
		MaxTokens:   u.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}

	return u.normalize(out), nil
}

// normalize trims the reply and collapses decorated variants of the fallback
// phrase ("**I don't have ... Promtior.**", quoted, missing period) to the exact phrase.
func (u *SynthesizeUseCase) normalize(out string) string {
	out = strings.TrimSpace(out)
	if out == u.fallback {
		return out
	}

	stripped := strings.TrimFunc(out, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
	})
	want := strings.TrimRight(u.fallback, ".")
	if strings.EqualFold(stripped, want) {
		return u.fallback
	}
	return out
}
