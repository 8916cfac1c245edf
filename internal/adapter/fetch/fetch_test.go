package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

const page = `<!DOCTYPE html>
<html>
<head>
  <title>Promtior | GenAI   consulting</title>
  <style>body { color: red; }</style>
  <script>var tracking = "ignore me";</script>
</head>
<body>
  <nav><a href="/">Home</a> <a href="/service">Services</a></nav>
  <h1>About us</h1>
  <p>Promtior is a   <b>technology</b> consulting firm
     focused on generative AI.</p>
  <ul><li>GenAI products</li><li>Adoption programs</li></ul>
  <noscript>Enable JavaScript</noscript>
</body>
</html>`

func TestExtractText(t *testing.T) {
	title, text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Promtior | GenAI consulting", title)
	assert.Contains(t, text, "Promtior is a technology consulting firm focused on generative AI.")
	assert.Contains(t, text, "About us\n\nPromtior")
	assert.Contains(t, text, "GenAI products\n\nAdoption programs")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Enable JavaScript")
}

func TestNormalizePlain(t *testing.T) {
	in := "line one  \r\n\r\n\r\n\r\nline two\n\n"
	assert.Equal(t, "line one\n\nline two", normalizePlain(in))
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(page))
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("plain notes\n\n\nmore"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, WithUserAgent("ragchat-test"))

	docs, err := f.Fetch(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, srv.URL+"/", docs[0].Source)
	assert.Equal(t, domain.DocumentID(srv.URL+"/"), docs[0].ID)
	assert.Equal(t, "Promtior | GenAI consulting", docs[0].Title)
	assert.Contains(t, docs[0].Content, "consulting firm")
	assert.Equal(t, "ragchat-test", gotUA)

	docs, err = f.Fetch(context.Background(), srv.URL+"/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain notes\n\nmore", docs[0].Content)
}

func TestHTTPFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

func TestHTTPFetcher_UnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

func TestHTTPFetcher_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, WithRateLimit(0.001))
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, srv.URL)
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

type stubFetcher struct{ name string }

func (s stubFetcher) Fetch(_ context.Context, source string) ([]domain.Document, error) {
	return []domain.Document{{Source: source, Title: s.name}}, nil
}

func TestRouter(t *testing.T) {
	r := NewRouter().
		Handle("file://", stubFetcher{"file"}).
		Handle("http://", stubFetcher{"web"}).
		Handle("https://", stubFetcher{"web"})

	docs, err := r.Fetch(context.Background(), "file://docs/*.md")
	require.NoError(t, err)
	assert.Equal(t, "file", docs[0].Title)

	docs, err = r.Fetch(context.Background(), "https://www.promtior.ai")
	require.NoError(t, err)
	assert.Equal(t, "web", docs[0].Title)

	_, err = r.Fetch(context.Background(), "ftp://example.com")
	assert.True(t, errors.Is(err, domain.ErrFetch))
}
