package usecase

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/port"
	"ragchat/internal/prompt"
)

// CondenseUseCase rewrites a follow-up question into a standalone one.
type CondenseUseCase struct {
	llm          port.LLM
	organization string
	maxTokens    int
}

func NewCondenseUseCase(llm port.LLM, organization string, maxTokens int) *CondenseUseCase {
	return &CondenseUseCase{llm: llm, organization: organization, maxTokens: maxTokens}
}

// Condense resolves references in question against chatHistory. With no
// history the question is returned as is and the model is not called.
func (u *CondenseUseCase) Condense(ctx context.Context, question, chatHistory string) (string, error) {
	if strings.TrimSpace(chatHistory) == "" {
		return question, nil
	}

	user, err := prompt.Condense.Render(prompt.CondenseData{
		Organization: u.organization,
		ChatHistory:  chatHistory,
		Question:     question,
	})
	if err != nil {
		return "", err
	}

	out, err := u.llm.Generate(ctx, "", user, port.GenerateOptions{Temperature: 0, MaxTokens: u.maxTokens})
	if err != nil {
		return "", fmt.Errorf("failed to condense question: %w", err)
	}

	standalone := cleanStandalone(out)
	if standalone == "" {
		return question, nil
	}
	return standalone, nil
}

var standalonePrefixes = []string{"standalone question:", "standalone:"}

func cleanStandalone(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range standalonePrefixes {
		if strings.HasPrefix(lower, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	return strings.Trim(s, "\"")
}
