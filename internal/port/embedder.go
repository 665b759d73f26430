package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores and searches embedding vectors for the current run.
type VectorStore interface {
	// Upsert adds or updates vectors in the store.
	Upsert(ctx context.Context, items []VectorItem) error

	// Search finds the k nearest vectors to the query.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)

	// Count returns the number of vectors in the store.
	Count() int
}

// VectorItem represents a vector to be stored.
type VectorItem struct {
	ID       string            // Document index as a string
	Vector   []float32         // Embedding vector
	Content  string            // Flattened document text
	Metadata map[string]string // Optional metadata
}

// VectorResult represents a search result.
type VectorResult struct {
	ID       string  // Document index as a string
	Score    float64 // Cosine similarity (higher is better)
	Content  string
	Metadata map[string]string
}
