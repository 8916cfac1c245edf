// Package fs serves local files as ingestion sources. A source has the form
// file://<pattern>, where pattern is a doublestar glob such as docs/**/*.md.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"ragchat/internal/domain"
)

const Scheme = "file://"

type Walker struct {
	excludes []string
}

func NewWalker(excludes []string) *Walker {
	return &Walker{excludes: excludes}
}

// Glob returns the regular files matching pattern in lexical order.
func (w *Walker) Glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %s", pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if w.shouldExclude(filepath.ToSlash(path)) {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// Fetcher reads every file matched by a file:// source.
type Fetcher struct {
	walker *Walker
}

func NewFetcher(walker *Walker) *Fetcher {
	if walker == nil {
		walker = NewWalker(nil)
	}
	return &Fetcher{walker: walker}
}

func (f *Fetcher) Fetch(ctx context.Context, source string) ([]domain.Document, error) {
	pattern := strings.TrimPrefix(source, Scheme)

	files, err := f.walker.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, source, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s: no files match", domain.ErrFetch, source)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, path, err)
		}
		docSource := Scheme + filepath.ToSlash(path)
		docs = append(docs, domain.Document{
			ID:      domain.DocumentID(docSource),
			Source:  docSource,
			Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Content: content,
		})
	}
	return docs, nil
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}
