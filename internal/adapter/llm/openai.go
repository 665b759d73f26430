package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"labrec/internal/port"
)

// Options configures an OpenAI-compatible completion client.
type Options struct {
	Provider    string // "openai" or "azure"
	Model       string
	APIKeyEnv   string
	BaseURL     string
	APIVersion  string
	Temperature float64 // default for calls without WithTemperature, 0 = provider default
	MaxTokens   int
}

// Stats tracks completion usage. Token counts are estimated at ~4 chars per token.
type Stats struct {
	TotalCalls        int
	TotalInputChars   int
	TotalOutputChars  int
	TotalInputTokens  int
	TotalOutputTokens int
}

// Client is a text-completion client over langchaingo's OpenAI model. It
// serves api.openai.com, Azure OpenAI deployments and OpenAI-compatible
// local endpoints.
type Client struct {
	model       llms.Model
	modelName   string
	temperature float64
	maxTokens   int

	mu    sync.Mutex
	stats Stats
}

func New(opts Options) (*Client, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}

	clientOpts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	if opts.Provider == "azure" {
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("azure completions require base_url (the resource endpoint)")
		}
		clientOpts = append(clientOpts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(opts.APIVersion),
		)
	}

	model, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return NewWithModel(model, opts), nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(model llms.Model, opts Options) *Client {
	return &Client{
		model:       model,
		modelName:   opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string, opts ...port.GenerateOption) (string, error) {
	return c.chat(ctx, []llms.MessageContent{textMessage(schema.ChatMessageTypeHuman, prompt)}, opts)
}

func (c *Client) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...port.GenerateOption) (string, error) {
	return c.chat(ctx, []llms.MessageContent{
		textMessage(schema.ChatMessageTypeSystem, systemPrompt),
		textMessage(schema.ChatMessageTypeHuman, userPrompt),
	}, opts)
}

func (c *Client) ModelName() string {
	return c.modelName
}

// Stats returns the usage counters so far.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Client) chat(ctx context.Context, messages []llms.MessageContent, opts []port.GenerateOption) (string, error) {
	o := port.ApplyGenerateOptions(opts)
	if !o.TemperatureSet && c.temperature > 0 {
		o.Temperature = c.temperature
		o.TemperatureSet = true
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = c.maxTokens
	}

	var callOpts []llms.CallOption
	if o.TemperatureSet {
		callOpts = append(callOpts, llms.WithTemperature(o.Temperature))
	}
	if o.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}
	output := resp.Choices[0].Content

	inputChars := 0
	for _, m := range messages {
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				inputChars += len(t.Text)
			}
		}
	}
	c.mu.Lock()
	c.stats.TotalCalls++
	c.stats.TotalInputChars += inputChars
	c.stats.TotalOutputChars += len(output)
	c.stats.TotalInputTokens += inputChars / 4
	c.stats.TotalOutputTokens += len(output) / 4
	c.mu.Unlock()

	return output, nil
}

func textMessage(role schema.ChatMessageType, text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  role,
		Parts: []llms.ContentPart{llms.TextContent{Text: text}},
	}
}
