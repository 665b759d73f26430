package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"labrec/internal/adapter/cache"
	"labrec/internal/port"
)

// PersistentCache is the on-disk tier behind the memory cache.
type PersistentCache interface {
	GetVector(key string) ([]float32, bool, error)
	PutVectors(vectors map[string][]float32) error
}

// CachedEmbedder embeds only texts missing from the memory and persistent
// caches and writes new vectors back to both.
type CachedEmbedder struct {
	inner  port.Embedder
	memory *cache.EmbeddingCache
	disk   PersistentCache
	logger *zap.Logger
}

// NewCachedEmbedder wraps inner. disk may be nil.
func NewCachedEmbedder(inner port.Embedder, memory *cache.EmbeddingCache, disk PersistentCache, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, memory: memory, disk: disk, logger: logger}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missPos []int

	model := e.inner.ModelName()
	for i, text := range texts {
		key := cache.Key(model, text)
		if vec, ok := e.memory.Get(key); ok {
			out[i] = vec
			continue
		}
		if e.disk != nil {
			vec, ok, err := e.disk.GetVector(key)
			if err != nil {
				e.logger.Warn("embedding cache read failed", zap.Error(err))
			} else if ok && len(vec) == e.inner.Dimension() {
				e.memory.Put(key, vec)
				out[i] = vec
				continue
			}
		}
		missTexts = append(missTexts, text)
		missPos = append(missPos, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	e.logger.Debug("embedding cache miss",
		zap.Int("misses", len(missTexts)),
		zap.Int("total", len(texts)))

	vectors, err := e.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(vectors), len(missTexts))
	}

	fresh := make(map[string][]float32, len(vectors))
	for j, vec := range vectors {
		key := cache.Key(model, missTexts[j])
		e.memory.Put(key, vec)
		fresh[key] = vec
		out[missPos[j]] = vec
	}
	if e.disk != nil {
		if err := e.disk.PutVectors(fresh); err != nil {
			e.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}

	return out, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.inner.ModelName()
}
