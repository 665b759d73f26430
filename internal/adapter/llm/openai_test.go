package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"labrec/internal/port"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	// -1 marks a temperature that was never sent.
	m.opts = llms.CallOptions{Temperature: -1}
	for _, o := range options {
		o(&m.opts)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.reply, m.err
}

func TestClient_GenerateWithSystem(t *testing.T) {
	model := &fakeModel{reply: "hello there"}
	c := NewWithModel(model, Options{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 1024})

	out, err := c.GenerateWithSystem(context.Background(), "be brief", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	require.Len(t, model.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, 0.7, model.opts.Temperature)
	assert.Equal(t, 1024, model.opts.MaxTokens)

	stats := c.Stats()
	assert.Equal(t, 1, stats.TotalCalls)
	assert.Equal(t, len("be brief")+len("hi"), stats.TotalInputChars)
	assert.Equal(t, len("hello there"), stats.TotalOutputChars)
}

func TestClient_PerCallOptionsOverrideDefaults(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	c := NewWithModel(model, Options{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 1024})

	_, err := c.Generate(context.Background(), "split", port.WithTemperature(0.3), port.WithMaxTokens(2048))
	require.NoError(t, err)

	assert.Equal(t, 0.3, model.opts.Temperature)
	assert.Equal(t, 2048, model.opts.MaxTokens)
	assert.Equal(t, "gpt-4o", c.ModelName())
}

func TestClient_ExplicitZeroTemperature(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	c := NewWithModel(model, Options{Model: "gpt-4o", Temperature: 0.7})

	_, err := c.Generate(context.Background(), "judge", port.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, model.opts.Temperature)

	_, err = c.Generate(context.Background(), "judge")
	require.NoError(t, err)
	assert.Equal(t, 0.7, model.opts.Temperature)
}

func TestClient_NoTemperatureLeavesProviderDefault(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	c := NewWithModel(model, Options{Model: "gpt-4o"})

	_, err := c.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, -1.0, model.opts.Temperature)
}

func TestClient_Error(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	c := NewWithModel(model, Options{Model: "gpt-4o"})

	_, err := c.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Zero(t, c.Stats().TotalCalls)
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("LABREC_TEST_MISSING_KEY", "")
	_, err := New(Options{Model: "gpt-4o", APIKeyEnv: "LABREC_TEST_MISSING_KEY"})
	assert.Error(t, err)
}
