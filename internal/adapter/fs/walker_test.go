package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWalker_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "b.md"), "b")
	writeFile(t, filepath.Join(dir, "docs", "nested", "a.md"), "a")
	writeFile(t, filepath.Join(dir, "docs", "draft", "wip.md"), "wip")
	writeFile(t, filepath.Join(dir, "docs", "notes.txt"), "txt")

	w := NewWalker([]string{"**/draft/**"})
	files, err := w.Glob(filepath.ToSlash(filepath.Join(dir, "docs", "**", "*.md")))
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "docs", "b.md"), files[0])
	assert.Equal(t, filepath.Join(dir, "docs", "nested", "a.md"), files[1])
}

func TestFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "about.md"), "Promtior helps companies adopt GenAI.\r\n")
	writeFile(t, filepath.Join(dir, "services.md"), "Services: consulting.")

	f := NewFetcher(nil)
	docs, err := f.Fetch(context.Background(), Scheme+filepath.ToSlash(filepath.Join(dir, "*.md")))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "about", docs[0].Title)
	assert.Equal(t, "Promtior helps companies adopt GenAI.\n", docs[0].Content)
	assert.Equal(t, domain.DocumentID(docs[0].Source), docs[0].ID)
	assert.Equal(t, "services", docs[1].Title)
}

func TestFetcher_NoMatches(t *testing.T) {
	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), Scheme+filepath.ToSlash(filepath.Join(t.TempDir(), "*.md")))
	assert.True(t, errors.Is(err, domain.ErrFetch))
}
