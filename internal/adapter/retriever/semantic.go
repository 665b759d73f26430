package retriever

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"labrec/internal/domain"
	"labrec/internal/port"
)

// ProgressFunc reports embedding progress while an index is built.
type ProgressFunc func(done, total int)

// VectorStoreFactory creates an empty dense index for vectors of dimension.
type VectorStoreFactory func(dimension int) (port.VectorStore, error)

// SemanticRetriever is the dense half of the hybrid retriever.
type SemanticRetriever struct {
	embedder   port.Embedder
	newStore   VectorStoreFactory
	batchSize  int
	onProgress ProgressFunc

	vectorStore port.VectorStore
	texts       map[int]string
}

func NewSemanticRetriever(embedder port.Embedder, newStore VectorStoreFactory, batchSize int) *SemanticRetriever {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SemanticRetriever{
		embedder:  embedder,
		newStore:  newStore,
		batchSize: batchSize,
	}
}

// Index embeds every document once, in batches, into a fresh vector store.
func (r *SemanticRetriever) Index(ctx context.Context, docs []domain.Document) error {
	vs, err := r.newStore(r.embedder.Dimension())
	if err != nil {
		return err
	}

	texts := make(map[int]string, len(docs))
	for start := 0; start < len(docs); start += r.batchSize {
		end := start + r.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		inputs := make([]string, len(batch))
		for i, doc := range batch {
			inputs[i] = doc.Text
		}
		vectors, err := r.embedder.Embed(ctx, inputs)
		if err != nil {
			return fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding returned %d vectors for %d documents", len(vectors), len(batch))
		}

		items := make([]port.VectorItem, len(batch))
		for i, doc := range batch {
			items[i] = port.VectorItem{ID: doc.ID(), Vector: vectors[i], Content: doc.Text}
			texts[doc.Index] = doc.Text
		}
		if err := vs.Upsert(ctx, items); err != nil {
			return fmt.Errorf("failed to store vectors: %w", err)
		}

		if r.onProgress != nil {
			r.onProgress(end, len(docs))
		}
	}

	r.vectorStore = vs
	r.texts = texts
	return nil
}

func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	if r.vectorStore == nil {
		return nil, fmt.Errorf("semantic search not available: index not built")
	}
	if k <= 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := r.vectorStore.Search(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(results))
	for _, result := range results {
		index, err := strconv.Atoi(result.ID)
		if err != nil {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Index: index,
			Text:  r.texts[index],
			Score: result.Score,
		})
	}

	// Equal similarities come back in arbitrary order from the store.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Index < candidates[j].Index
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates, nil
}
