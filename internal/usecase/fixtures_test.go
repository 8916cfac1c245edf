package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/fetch"
	"ragchat/internal/adapter/memstore"
	"ragchat/internal/adapter/store"
	"ragchat/internal/port"
)

var sitePages = map[string]string{
	"/": `<html><head><title>Promtior</title></head><body>
<h1>Promtior</h1>
<p>Promtior is a technology consulting company that helps organizations adopt generative AI.
The company builds GenAI solutions for businesses across Latin America and the United States.</p>
<p>Promtior was founded in 2023 by a team of engineers and data scientists.</p>
</body></html>`,
	"/service": `<html><head><title>Services</title></head><body>
<h2>Services</h2>
<p>Promtior offers GenAI product development, adoption programs for teams, and custom assistants
built on large language models.</p>
<p>The services include discovery workshops, prototype delivery, and production support.</p>
</body></html>`,
	"/use-cases": `<html><head><title>Use cases</title></head><body>
<p>Customers use Promtior assistants for customer support automation, document search, and internal
knowledge bases. Each use case starts with a short proof of concept.</p>
</body></html>`,
	"/empty": `<html><head><script>var x = 1;</script></head><body><script>track()</script></body></html>`,
}

// newSite serves sitePages; any other path answers 500.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := sitePages[r.URL.Path]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func siteSources(srv *httptest.Server) []string {
	return []string{srv.URL + "/", srv.URL + "/service", srv.URL + "/use-cases"}
}

type ingestFixture struct {
	ingest   *IngestUseCase
	store    *store.BoltIndexStore
	embedder *embedding.HashEmbedder
}

func newIngestFixture(t *testing.T, embedder port.Embedder) *ingestFixture {
	t.Helper()
	ch, err := chunker.NewRecursiveChunker(200, 20)
	require.NoError(t, err)

	hash := embedding.NewHashEmbedder(128)
	if embedder == nil {
		embedder = hash
	}

	st := store.NewBoltIndexStore(filepath.Join(t.TempDir(), "vectorstore", "index.db"), "test")
	fetcher := fetch.NewHTTPFetcher(5 * time.Second)

	return &ingestFixture{
		ingest:   NewIngestUseCase(fetcher, ch, embedder, st, WithBatchSize(4)),
		store:    st,
		embedder: hash,
	}
}

// loadRetriever builds a retriever over whatever the fixture store holds.
func (f *ingestFixture) loadRetriever(t *testing.T) *RetrieveUseCase {
	t.Helper()
	model, entries, err := f.store.Load()
	require.NoError(t, err)
	idx, err := memstore.NewMemoryIndex(model, entries)
	require.NoError(t, err)
	r, err := NewRetrieveUseCase(f.embedder, idx)
	require.NoError(t, err)
	return r
}

type llmCall struct {
	System string
	User   string
	Opts   port.GenerateOptions
}

// scriptedLLM answers from reply and records every call.
type scriptedLLM struct {
	mu    sync.Mutex
	calls []llmCall
	reply func(system, user string) (string, error)
}

func (l *scriptedLLM) Generate(_ context.Context, system, user string, opts port.GenerateOptions) (string, error) {
	l.mu.Lock()
	l.calls = append(l.calls, llmCall{System: system, User: user, Opts: opts})
	l.mu.Unlock()
	return l.reply(system, user)
}

func (l *scriptedLLM) ModelName() string {
	return "scripted"
}

func (l *scriptedLLM) Calls() []llmCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]llmCall(nil), l.calls...)
}

// promptSection returns the text after "label:" up to the next blank line.
func promptSection(prompt, label string) string {
	i := strings.Index(prompt, label+":")
	if i < 0 {
		return ""
	}
	rest := strings.TrimLeft(prompt[i+len(label)+1:], " \n")
	if j := strings.Index(rest, "\n\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

type failingEmbedder struct {
	port.Embedder
	err error
}

func (f failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}
