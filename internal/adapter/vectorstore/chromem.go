// Package vectorstore holds the dense index of a single run.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	chromem "github.com/philippgille/chromem-go"

	"labrec/internal/port"
)

var errNoEmbeddingFunc = errors.New("chromem store expects precomputed embeddings")

// ChromemStore implements port.VectorStore on a non-persistent chromem-go
// collection. Similarity is cosine; chromem normalizes vectors on insert and
// query.
type ChromemStore struct {
	collection *chromem.Collection
	dimension  int
}

// NewChromemStore creates an empty in-memory collection.
func NewChromemStore(name string, dimension int) (*ChromemStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(name, nil, func(ctx context.Context, text string) ([]float32, error) {
		return nil, errNoEmbeddingFunc
	})
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}

	return &ChromemStore{
		collection: collection,
		dimension:  dimension,
	}, nil
}

// Upsert adds or replaces vectors.
func (s *ChromemStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(items))
	for i, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", item.ID, s.dimension, len(item.Vector))
		}
		docs[i] = chromem.Document{
			ID:        item.ID,
			Metadata:  item.Metadata,
			Embedding: item.Vector,
			Content:   item.Content,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Search returns up to k results ordered by cosine similarity.
func (s *ChromemStore) Search(ctx context.Context, query []float32, k int) ([]port.VectorResult, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}

	n := s.collection.Count()
	if k < n {
		n = k
	}
	if n <= 0 {
		return nil, nil
	}

	res, err := s.collection.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]port.VectorResult, len(res))
	for i, r := range res {
		results[i] = port.VectorResult{
			ID:       r.ID,
			Score:    float64(r.Similarity),
			Content:  r.Content,
			Metadata: r.Metadata,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// Count returns the number of vectors in the store.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}
