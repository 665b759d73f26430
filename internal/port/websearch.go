package port

import (
	"context"

	"labrec/internal/domain"
)

// WebSearcher queries an external search engine.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error)
}
