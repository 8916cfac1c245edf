package port

import (
	"context"

	"ragchat/internal/domain"
)

// Fetcher returns the raw text of the documents identified by source. A URL
// yields one document; a glob source may expand to several.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]domain.Document, error)
}
