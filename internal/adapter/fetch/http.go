// Package fetch retrieves source documents over HTTP and dispatches sources
// to the fetcher that understands their scheme.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ragchat/internal/domain"
)

const maxBodyBytes = 10 << 20

// HTTPFetcher downloads web pages and reduces them to readable text.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	log       *zap.Logger
}

type HTTPOption func(*HTTPFetcher)

func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = c }
}

func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64) HTTPOption {
	return func(f *HTTPFetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			f.limiter = nil
		}
	}
}

func WithLogger(log *zap.Logger) HTTPOption {
	return func(f *HTTPFetcher) { f.log = log }
}

func NewHTTPFetcher(timeout time.Duration, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "ragchat/1.0",
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]domain.Document, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, source, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, source, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", domain.ErrFetch, source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read body: %w", domain.ErrFetch, source, err)
	}

	title, text, err := toText(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, source, err)
	}

	f.log.Debug("fetched page",
		zap.String("source", source),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Int("text_runes", len([]rune(text))),
		zap.Duration("elapsed", time.Since(start)),
	)

	return []domain.Document{{
		ID:      domain.DocumentID(source),
		Source:  source,
		Title:   title,
		Content: text,
	}}, nil
}

func toText(contentType string, body []byte) (title, text string, err error) {
	mediaType := "text/html"
	if contentType != "" {
		if mt, _, perr := mime.ParseMediaType(contentType); perr == nil {
			mediaType = mt
		}
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return ExtractText(bytes.NewReader(body))
	case strings.HasPrefix(mediaType, "text/"):
		return "", normalizePlain(string(body)), nil
	default:
		return "", "", fmt.Errorf("unsupported content type %q", mediaType)
	}
}
