package usecase

import (
	"context"

	"go.uber.org/zap"

	"labrec/internal/domain"
	"labrec/internal/port"
)

// RetrieveUseCase builds a fresh hybrid index and selects the top K documents.
type RetrieveUseCase struct {
	newRetriever func() port.Retriever
	logger       *zap.Logger
}

// NewRetrieveUseCase creates a new retrieve use case. newRetriever is called
// once per Retrieve so concurrent callers never share an index.
func NewRetrieveUseCase(newRetriever func() port.Retriever, logger *zap.Logger) *RetrieveUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrieveUseCase{
		newRetriever: newRetriever,
		logger:       logger,
	}
}

// Retrieve indexes docs and returns the top k candidates for query.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, docs []domain.Document, query string, k int) ([]domain.Document, error) {
	r := u.newRetriever()
	if err := r.Build(ctx, docs); err != nil {
		return nil, err
	}

	candidates, err := r.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	return SelectTopK(candidates, k, u.logger), nil
}

// SelectTopK returns the first min(k, len(candidates)) candidates as
// documents, preserving order. Fewer candidates than k is not an error.
func SelectTopK(candidates []domain.Candidate, k int, logger *zap.Logger) []domain.Document {
	if k < 0 {
		k = 0
	}
	if k > len(candidates) {
		if logger != nil {
			logger.Info("top_k exceeds available candidates, using all",
				zap.Int("requested", k),
				zap.Int("available", len(candidates)))
		}
		k = len(candidates)
	}

	docs := make([]domain.Document, k)
	for i, c := range candidates[:k] {
		docs[i] = domain.Document{Index: c.Index, Text: c.Text}
	}
	return docs
}
