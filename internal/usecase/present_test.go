package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labrec/internal/adapter/source"
	"labrec/internal/domain"
	"labrec/internal/testutil"
)

func TestPresent_RendersRecordAndWeb(t *testing.T) {
	records := testRecords(3)
	records[1].Email = "lab1@example.ac.kr"
	p := NewPresentUseCase(source.ByIndex(records), nil, true, nil)

	blocks := p.Present(context.Background(), []domain.Recommendation{
		{Index: 1, Reason: "great fit"},
		{Index: 42, Reason: "orphan"},
		{Index: domain.WebIndex, Reason: "found on the web"},
	})

	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "Recommendation 1")
	assert.Contains(t, blocks[0], "great fit")
	assert.Contains(t, blocks[0], "[Lab] Lab 1")
	assert.Contains(t, blocks[0], "lab1@example.ac.kr")
	assert.Contains(t, blocks[1], "(web search)")
	assert.Contains(t, blocks[1], "found on the web")
}

func TestPresent_Polish(t *testing.T) {
	llm := &testutil.FakeLLM{Respond: func(system, user string) (string, error) {
		return "  polished summary  ", nil
	}}
	p := NewPresentUseCase(source.ByIndex(testRecords(2)), llm, true, nil)

	blocks := p.Present(context.Background(), []domain.Recommendation{
		{Index: 0, Reason: "r"},
		{Index: domain.WebIndex, Reason: "web"},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "polished summary", blocks[0])
	assert.Contains(t, blocks[1], "web")
	require.Len(t, llm.Calls(), 1)
	assert.Contains(t, llm.Calls()[0].User, "[Lab] Lab 0")
}

func TestPresent_PolishFailureFallsBackToRaw(t *testing.T) {
	llm := &testutil.FakeLLM{Respond: func(system, user string) (string, error) {
		return "", errors.New("unavailable")
	}}
	p := NewPresentUseCase(source.ByIndex(testRecords(1)), llm, true, nil)

	blocks := p.Present(context.Background(), []domain.Recommendation{{Index: 0, Reason: "r"}})
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0], "[Lab] Lab 0")
}
