package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labrec/internal/port"
)

func TestChromemStore_Search(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore("test", 3)
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, []port.VectorItem{
		{ID: "0", Vector: []float32{1, 0, 0}, Content: "x"},
		{ID: "1", Vector: []float32{0, 1, 0}, Content: "y"},
		{ID: "2", Vector: []float32{0.9, 0.1, 0}, Content: "mostly x"},
	}))
	assert.Equal(t, 3, s.Count())

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "0", results[0].ID)
	assert.Equal(t, "2", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestChromemStore_KLargerThanCount(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore("test", 2)
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, []port.VectorItem{{ID: "0", Vector: []float32{1, 1}}}))

	results, err := s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromemStore_Empty(t *testing.T) {
	s, err := NewChromemStore("test", 2)
	require.NoError(t, err)

	results, err := s.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore("test", 3)
	require.NoError(t, err)

	err = s.Upsert(ctx, []port.VectorItem{{ID: "0", Vector: []float32{1, 0}}})
	assert.Error(t, err)

	_, err = s.Search(ctx, []float32{1, 0}, 1)
	assert.Error(t, err)
}
