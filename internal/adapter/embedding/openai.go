package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Options configures an OpenAI-compatible embedder.
type Options struct {
	Provider   string // "openai" or "azure"
	Model      string
	APIKeyEnv  string
	BaseURL    string
	APIVersion string
	Dimension  int
	BatchSize  int
}

// OpenAIEmbedder embeds text through langchaingo's OpenAI client. It serves
// both api.openai.com and Azure OpenAI deployments.
type OpenAIEmbedder struct {
	embedder  embeddings.Embedder
	model     string
	dimension int
}

func NewOpenAIEmbedder(opts Options) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}

	clientOpts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(opts.Model),
		openai.WithEmbeddingModel(opts.Model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	if opts.Provider == "azure" {
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("azure embeddings require base_url (the resource endpoint)")
		}
		clientOpts = append(clientOpts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(opts.APIVersion),
		)
	}

	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batchSize))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &OpenAIEmbedder{
		embedder:  embedder,
		model:     opts.Model,
		dimension: dimensionFor(opts.Model, opts.Dimension),
	}, nil
}

func dimensionFor(model string, configured int) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	}
	if configured > 0 {
		return configured
	}
	return 1536
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
