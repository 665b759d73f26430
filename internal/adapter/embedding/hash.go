package embedding

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"

	"labrec/internal/port"
)

// HashEmbedder is a deterministic, offline embedder: tokens are hashed into
// a fixed number of buckets with a signed hashing trick and the result is
// L2-normalized. Texts sharing vocabulary end up close in cosine space.
type HashEmbedder struct {
	tokenizer port.Tokenizer
	dimension int
}

func NewHashEmbedder(tokenizer port.Tokenizer, dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{tokenizer: tokenizer, dimension: dimension}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, token := range e.tokenizer.Tokenize(text) {
		h := xxhash.Sum64String(token)
		bucket := int(h % uint64(e.dimension))
		if h&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// A zero vector has no direction; give it one so cosine stays defined.
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return "hash"
}
