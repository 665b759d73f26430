package port

import (
	"context"

	"labrec/internal/domain"
)

// Retriever ranks the documents of the current index against a query.
type Retriever interface {
	// Build (re)indexes the documents. Any previous index is discarded.
	Build(ctx context.Context, docs []domain.Document) error

	// Search returns at most k candidates, highest relevance first.
	Search(ctx context.Context, query string, k int) ([]domain.Candidate, error)
}
