package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// LABREC_RETRIEVE_SPARSE_WEIGHT -> retrieve.sparse_weight.
const EnvPrefix = "LABREC_"

// Config holds all configuration for the lab recommender.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Gate      GateConfig      `yaml:"gate"`
	WebSearch WebSearchConfig `yaml:"websearch"`
	Fallback  FallbackConfig  `yaml:"fallback"`
	Present   PresentConfig   `yaml:"present"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DataConfig locates the lab dataset.
type DataConfig struct {
	Paths []string `yaml:"paths"` // doublestar globs, .csv or .xlsx
	Sheet string   `yaml:"sheet"` // xlsx sheet, empty = first sheet
}

// RetrieveConfig holds hybrid retrieval configuration.
type RetrieveConfig struct {
	TopK         int     `yaml:"top_k"`
	DenseWeight  float64 `yaml:"dense_weight"`
	SparseWeight float64 `yaml:"sparse_weight"`
	RRFK         int     `yaml:"rrf_k"`
	K1           float64 `yaml:"k1"`
	B            float64 `yaml:"b"`
	Stemming     bool    `yaml:"stemming"`
	CJKBigrams   bool    `yaml:"cjk_bigrams"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // "openai", "azure", "hash"
	Model      string `yaml:"model"`    // e.g., "text-embedding-3-small"
	APIKeyEnv  string `yaml:"api_key_env"`
	BaseURL    string `yaml:"base_url"`
	APIVersion string `yaml:"api_version"`
	Dimension  int    `yaml:"dimension"`
	BatchSize  int    `yaml:"batch_size"`
	CachePath  string `yaml:"cache_path"` // bbolt file, empty = .labrec/embeddings.db when present
	CacheSize  int    `yaml:"cache_size"`
	CacheTTL   string `yaml:"cache_ttl"`
}

// LLMConfig holds text-completion configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "azure"
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	APIVersion  string  `yaml:"api_version"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// GateConfig holds relevance gate configuration.
type GateConfig struct {
	Mode        string `yaml:"mode"` // "json" or "sentinel"
	Sentinel    string `yaml:"sentinel"`
	Concurrency int    `yaml:"concurrency"`
}

// WebSearchConfig holds the fallback search provider configuration.
type WebSearchConfig struct {
	Provider    string `yaml:"provider"` // "tavily"
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	SearchDepth string `yaml:"search_depth"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// FallbackConfig tunes the web fallback completions.
type FallbackConfig struct {
	SynthTemperature float64 `yaml:"synth_temperature"`
	SynthMaxTokens   int     `yaml:"synth_max_tokens"`
	SplitTemperature float64 `yaml:"split_temperature"`
	SplitMaxTokens   int     `yaml:"split_max_tokens"`
	ContextBudget    int     `yaml:"context_budget"` // tokens of web context, 0 = unlimited
}

// PresentConfig controls result rendering.
type PresentConfig struct {
	Polish bool `yaml:"polish"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	MaxTopK    int    `yaml:"max_top_k"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Paths: []string{"data/*.xlsx", "data/*.csv"},
		},
		Retrieve: RetrieveConfig{
			TopK:         3,
			DenseWeight:  1.0,
			SparseWeight: 0.0,
			RRFK:         60,
			K1:           1.2,
			B:            0.75,
			Stemming:     true,
			CJKBigrams:   true,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
			CacheSize: 1024,
			CacheTTL:  "1h",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Gate: GateConfig{
			Mode:        "json",
			Sentinel:    "NOT_RELEVANT",
			Concurrency: 1,
		},
		WebSearch: WebSearchConfig{
			Provider:    "tavily",
			APIKeyEnv:   "TAVILY_API_KEY",
			BaseURL:     "https://api.tavily.com",
			SearchDepth: "advanced",
			TimeoutSec:  30,
		},
		Fallback: FallbackConfig{
			SynthTemperature: 0.7,
			SynthMaxTokens:   1024,
			SplitTemperature: 0.3,
			SplitMaxTokens:   2048,
			ContextBudget:    8000,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			MaxTopK:    10,
			TimeoutSec: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	r := c.Retrieve
	if r.TopK < 1 {
		return fmt.Errorf("retrieve.top_k must be >= 1, got %d", r.TopK)
	}
	if r.DenseWeight < 0 || r.SparseWeight < 0 {
		return fmt.Errorf("retrieve weights must be non-negative (dense=%v, sparse=%v)", r.DenseWeight, r.SparseWeight)
	}
	if r.DenseWeight+r.SparseWeight == 0 {
		return fmt.Errorf("retrieve.dense_weight and retrieve.sparse_weight cannot both be zero")
	}
	switch c.Embedding.Provider {
	case "openai", "azure", "hash":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "openai", "azure":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Gate.Mode {
	case "json", "sentinel":
	default:
		return fmt.Errorf("unknown gate mode %q", c.Gate.Mode)
	}
	if c.Gate.Sentinel == "" {
		return fmt.Errorf("gate.sentinel must not be empty")
	}
	return nil
}

// Load loads configuration from a YAML file, then applies LABREC_*
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := k.Load(rawbytes.Provider(defaults), koanfyaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := k.Load(rawbytes.Provider(data), koanfyaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps LABREC_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// LoadFromDir loads configuration from a directory (looks for labrec.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "labrec.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".labrec", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return Load("")
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheDBPath returns the default location of the embedding cache.
func CacheDBPath(dir string) string {
	return filepath.Join(dir, ".labrec", "embeddings.db")
}

// EnsureDir ensures the .labrec directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".labrec"), 0755)
}
