package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labrec/internal/adapter/source"
	"labrec/internal/domain"
)

type failingSource struct{}

func (failingSource) Load() ([]domain.Record, error) {
	return nil, errors.New("disk gone")
}

func TestIndexUseCase_Load(t *testing.T) {
	corpus, err := NewIndexUseCase(source.StaticSource(testRecords(4)), nil).Load()
	require.NoError(t, err)

	assert.Len(t, corpus.Records, 4)
	require.Len(t, corpus.Docs, 4)
	assert.Contains(t, corpus.Docs[2].Text, "Lab Name: Lab 2")
	assert.Equal(t, "Prof 3", corpus.ByIndex[3].ProfessorName)
}

func TestIndexUseCase_Empty(t *testing.T) {
	_, err := NewIndexUseCase(source.StaticSource(nil), nil).Load()
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestIndexUseCase_SourceError(t *testing.T) {
	_, err := NewIndexUseCase(failingSource{}, nil).Load()
	assert.ErrorContains(t, err, "disk gone")
}
