package fetch

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// Router dispatches a source to the fetcher registered for its scheme prefix.
type Router struct {
	routes []route
}

type route struct {
	prefix  string
	fetcher port.Fetcher
}

func NewRouter() *Router {
	return &Router{}
}

// Handle registers fetcher for sources starting with prefix. Earlier
// registrations win when prefixes overlap.
func (r *Router) Handle(prefix string, fetcher port.Fetcher) *Router {
	r.routes = append(r.routes, route{prefix: prefix, fetcher: fetcher})
	return r
}

func (r *Router) Fetch(ctx context.Context, source string) ([]domain.Document, error) {
	for _, rt := range r.routes {
		if strings.HasPrefix(source, rt.prefix) {
			return rt.fetcher.Fetch(ctx, source)
		}
	}
	return nil, fmt.Errorf("%w: unsupported source %q", domain.ErrFetch, source)
}
