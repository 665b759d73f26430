package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingCache_GetPut(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)

	c.Put("a", []float32{1})
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []float32{1}, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestEmbeddingCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Get("a") // a becomes most recent
	c.Put("c", []float32{3})

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestEmbeddingCache_TTL(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("a", []float32{1})
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestEmbeddingCache_Invalidate(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)
	c.Put("a", []float32{1})
	c.Invalidate()
	assert.Zero(t, c.Size())
}

func TestKey_ScopedByModel(t *testing.T) {
	assert.NotEqual(t, Key("m1", "text"), Key("m2", "text"))
	assert.Equal(t, Key("m1", "text"), Key("m1", "text"))
}

func TestEmbeddingCache_ConcurrentAccessRespectsMaxSize(t *testing.T) {
	c := NewEmbeddingCache(8, time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (w*7+i)%32)
				c.Put(key, []float32{float32(i)})
				c.Get(key)
				c.Get(fmt.Sprintf("k%d", i%32))
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 8)
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.order, len(c.entries))
	for _, k := range c.order {
		assert.Contains(t, c.entries, k)
	}
}

func TestEmbeddingCache_ExpiredEntryLeavesOrder(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("old", []float32{1})
	now = now.Add(2 * time.Minute)
	_, ok := c.Get("old")
	assert.False(t, ok)

	c.Put("a", []float32{2})
	c.Put("b", []float32{3})
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, []string{"a", "b"}, c.order)
}
