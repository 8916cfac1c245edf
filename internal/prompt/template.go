// Package prompt renders the language-model prompts from typed templates.
//
// A Template[T] is checked when it is built: every field the template text
// references must exist on T. Fields tagged `prompt:"required"` must be
// non-blank when rendering.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"reflect"
	"strings"
	"text/template"
	"text/template/parse"

	"ragchat/internal/domain"
)

//go:embed templates/*.txt
var templateFS embed.FS

type Template[T any] struct {
	name     string
	tmpl     *template.Template
	required []string
}

// New parses text and verifies it against the fields of T.
func New[T any](name, text string) (*Template[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prompt %s: data type %s is not a struct", name, typ)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: failed to parse template: %w", name, err)
	}

	for _, field := range referencedFields(tmpl.Tree.Root) {
		sf, ok := typ.FieldByName(field)
		if !ok || !sf.IsExported() {
			return nil, fmt.Errorf("prompt %s: template references .%s which %s does not define", name, field, typ)
		}
	}

	var required []string
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if sf.Tag.Get("prompt") == "required" {
			if sf.Type.Kind() != reflect.String {
				return nil, fmt.Errorf("prompt %s: required field %s must be a string", name, sf.Name)
			}
			required = append(required, sf.Name)
		}
	}

	return &Template[T]{name: name, tmpl: tmpl, required: required}, nil
}

// Load builds a template from the embedded templates/<name>.txt file.
func Load[T any](name string) (*Template[T], error) {
	text, err := templateFS.ReadFile("templates/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("template not found: %w", err)
	}
	return New[T](name, string(text))
}

// MustLoad is like Load but panics on error. Used for the package's built-in prompts.
func MustLoad[T any](name string) *Template[T] {
	t, err := Load[T](name)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template[T]) Name() string {
	return t.name
}

func (t *Template[T]) Render(data T) (string, error) {
	v := reflect.ValueOf(data)
	for _, field := range t.required {
		if strings.TrimSpace(v.FieldByName(field).String()) == "" {
			return "", fmt.Errorf("%w: %s.%s", domain.ErrMissingField, t.name, field)
		}
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// referencedFields lists the top-level fields read from dot. Bodies of range
// and with blocks are skipped because dot is rebound inside them.
func referencedFields(root *parse.ListNode) []string {
	seen := make(map[string]bool)
	var fields []string

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}

	var visit func(n parse.Node)
	visitPipe := func(p *parse.PipeNode) {
		if p == nil {
			return
		}
		for _, cmd := range p.Cmds {
			for _, arg := range cmd.Args {
				visit(arg)
			}
		}
	}

	visit = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, child := range n.Nodes {
				visit(child)
			}
		case *parse.ActionNode:
			visitPipe(n.Pipe)
		case *parse.IfNode:
			visitPipe(n.Pipe)
			visit(n.List)
			visit(n.ElseList)
		case *parse.RangeNode:
			visitPipe(n.Pipe)
			visit(n.ElseList)
		case *parse.WithNode:
			visitPipe(n.Pipe)
			visit(n.ElseList)
		case *parse.TemplateNode:
			visitPipe(n.Pipe)
		case *parse.PipeNode:
			visitPipe(n)
		case *parse.FieldNode:
			if len(n.Ident) > 0 {
				add(n.Ident[0])
			}
		}
	}

	visit(root)
	return fields
}
