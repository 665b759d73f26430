package port

import "context"

// LLM represents a language model used as an opaque text-completion capability.
type LLM interface {
	// Generate generates text based on the prompt.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateWithSystem generates text with a system prompt.
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...GenerateOption) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// GenerateOptions tunes a single completion call. An unset temperature or a
// zero MaxTokens means the client default; TemperatureSet distinguishes an
// explicit 0 from unset.
type GenerateOptions struct {
	Temperature    float64
	TemperatureSet bool
	MaxTokens      int
}

type GenerateOption func(*GenerateOptions)

func WithTemperature(t float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = t
		o.TemperatureSet = true
	}
}

func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) { o.MaxTokens = n }
}

// ApplyGenerateOptions folds opts over an empty GenerateOptions.
func ApplyGenerateOptions(opts []GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
