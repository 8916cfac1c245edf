package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestBuiltinPrompts(t *testing.T) {
	out, err := Condense.Render(CondenseData{
		Organization: "Promtior",
		ChatHistory:  "Q: What is the company? A: It is an AI consulting company.",
		Question:     "What services do they offer?",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "standalone question about Promtior")
	assert.Contains(t, out, "Q: What is the company? A: It is an AI consulting company.")
	assert.Contains(t, out, "Follow-up Question: What services do they offer?")
	assert.True(t, strings.HasSuffix(out, "Standalone Question:"))

	sys, err := AnswerSystem.Render(AnswerSystemData{
		Organization: "Promtior",
		Fallback:     "I don't have that information about Promtior.",
	})
	require.NoError(t, err)
	assert.Contains(t, sys, "I don't have that information about Promtior.")

	user, err := Answer.Render(AnswerData{Context: "Promtior builds GenAI.", Question: "What does it build?"})
	require.NoError(t, err)
	assert.Contains(t, user, "Context:\nPromtior builds GenAI.")
	assert.NotContains(t, user, "Chat History:")
	assert.True(t, strings.HasSuffix(user, "Answer:"))

	user, err = Answer.Render(AnswerData{Context: "c", ChatHistory: "Q: hi A: hello", Question: "q"})
	require.NoError(t, err)
	assert.Contains(t, user, "Chat History:\nQ: hi A: hello")
}

func TestRender_MissingRequiredField(t *testing.T) {
	_, err := Condense.Render(CondenseData{Organization: "Promtior", Question: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingField))
	assert.Contains(t, err.Error(), "condense.Question")

	_, err = AnswerSystem.Render(AnswerSystemData{Organization: "Promtior"})
	assert.True(t, errors.Is(err, domain.ErrMissingField))
}

type greetingData struct {
	Name string `prompt:"required"`
}

func TestNew_UnknownField(t *testing.T) {
	_, err := New[greetingData]("greeting", "Hello {{.Name}}, you asked {{.Question}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".Question")
}

func TestNew_FieldsInsideBranches(t *testing.T) {
	_, err := New[greetingData]("greeting", "{{if .Name}}Hi {{.Nickname}}{{end}}")
	assert.Error(t, err)

	tmpl, err := New[greetingData]("greeting", "{{if .Name}}Hi {{.Name}}{{else}}Hi there{{end}}")
	require.NoError(t, err)
	out, err := tmpl.Render(greetingData{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana", out)
}

func TestNew_RangeBodyUsesElementFields(t *testing.T) {
	type listData struct {
		Items []struct{ Label string }
	}
	tmpl, err := New[listData]("list", "{{range .Items}}- {{.Label}}\n{{end}}")
	require.NoError(t, err)

	out, err := tmpl.Render(listData{Items: []struct{ Label string }{{"a"}, {"b"}}})
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b", out)
}

func TestNew_RejectsNonStruct(t *testing.T) {
	_, err := New[string]("bad", "{{.}}")
	assert.Error(t, err)
}

func TestLoad_MissingTemplate(t *testing.T) {
	_, err := Load[greetingData]("does_not_exist")
	assert.Error(t, err)
}
