package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"labrec/config"
	"labrec/internal/adapter/analyzer"
	"labrec/internal/adapter/cache"
	"labrec/internal/adapter/embedding"
	"labrec/internal/adapter/llm"
	"labrec/internal/adapter/memstore"
	"labrec/internal/adapter/retriever"
	"labrec/internal/adapter/source"
	"labrec/internal/adapter/store"
	"labrec/internal/adapter/vectorstore"
	"labrec/internal/adapter/websearch"
	"labrec/internal/port"
	"labrec/internal/usecase"
)

// app is the fully wired pipeline shared by the recommend and serve commands.
type app struct {
	corpus    *usecase.Corpus
	recommend *usecase.RecommendUseCase
	present   *usecase.PresentUseCase
	llm       *llm.Client
	cacheDB   *store.BoltStore
}

func (a *app) Close() error {
	if a.cacheDB != nil {
		return a.cacheDB.Close()
	}
	return nil
}

func newTokenizer(cfg *config.Config) *analyzer.Tokenizer {
	var opts []analyzer.Option
	if cfg.Retrieve.CJKBigrams {
		opts = append(opts, analyzer.WithCJKBigrams())
	}
	return analyzer.NewTokenizer(cfg.Retrieve.Stemming, opts...)
}

func loadCorpus(cfg *config.Config, root string, logger *zap.Logger) (*usecase.Corpus, error) {
	src := source.NewFileSource(root, cfg.Data.Paths, cfg.Data.Sheet, logger)
	return usecase.NewIndexUseCase(src, logger).Load()
}

// cachePath resolves the bbolt embedding cache. An explicit path always
// wins; otherwise the default location is used when it exists or when
// create is set.
func cachePath(cfg *config.Config, root string, create bool) string {
	if p := cfg.Embedding.CachePath; p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		return p
	}
	p := config.CacheDBPath(root)
	if create {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// newEmbedder builds the configured embedder behind the memory and disk
// caches. The returned store is nil when no disk cache is in use.
func newEmbedder(cfg *config.Config, root string, tok port.Tokenizer, createCache bool, logger *zap.Logger) (port.Embedder, *store.BoltStore, error) {
	ec := cfg.Embedding

	var inner port.Embedder
	switch ec.Provider {
	case "hash":
		inner = embedding.NewHashEmbedder(tok, ec.Dimension)
	case "openai", "azure":
		e, err := embedding.NewOpenAIEmbedder(embedding.Options{
			Provider:   ec.Provider,
			Model:      ec.Model,
			APIKeyEnv:  ec.APIKeyEnv,
			BaseURL:    ec.BaseURL,
			APIVersion: ec.APIVersion,
			Dimension:  ec.Dimension,
			BatchSize:  ec.BatchSize,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		inner = e
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}

	var ttl time.Duration
	if ec.CacheTTL != "" {
		d, err := time.ParseDuration(ec.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid embedding.cache_ttl %q: %w", ec.CacheTTL, err)
		}
		ttl = d
	}
	memory := cache.NewEmbeddingCache(ec.CacheSize, ttl)

	path := cachePath(cfg, root, createCache)
	if path == "" {
		return embedding.NewCachedEmbedder(inner, memory, nil, logger), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := store.NewBoltStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	logger.Debug("embedding cache opened", zap.String("path", path))
	return embedding.NewCachedEmbedder(inner, memory, db, logger), db, nil
}

// retrieverFactory returns a constructor of fresh hybrid retrievers, one per
// request.
func retrieverFactory(cfg *config.Config, emb port.Embedder, tok port.Tokenizer, onProgress retriever.ProgressFunc, logger *zap.Logger) func() port.Retriever {
	rc := cfg.Retrieve
	newStore := func(dim int) (port.VectorStore, error) {
		return vectorstore.NewChromemStore("labs", dim)
	}
	return func() port.Retriever {
		dense := retriever.NewSemanticRetriever(emb, newStore, cfg.Embedding.BatchSize)
		sparse := retriever.NewBM25Retriever(memstore.NewMemoryStore(), tok, rc.K1, rc.B)
		return retriever.NewHybridRetriever(dense, sparse, retriever.Options{
			DenseWeight:  rc.DenseWeight,
			SparseWeight: rc.SparseWeight,
			RRFK:         rc.RRFK,
			OnProgress:   onProgress,
		}, logger)
	}
}

func newApp(cfg *config.Config, root string, onProgress retriever.ProgressFunc, logger *zap.Logger) (*app, error) {
	corpus, err := loadCorpus(cfg, root, logger)
	if err != nil {
		return nil, err
	}

	tok := newTokenizer(cfg)
	emb, db, err := newEmbedder(cfg, root, tok, false, logger)
	if err != nil {
		return nil, err
	}
	a := &app{corpus: corpus, cacheDB: db}

	lc := cfg.LLM
	client, err := llm.New(llm.Options{
		Provider:    lc.Provider,
		Model:       lc.Model,
		APIKeyEnv:   lc.APIKeyEnv,
		BaseURL:     lc.BaseURL,
		APIVersion:  lc.APIVersion,
		Temperature: lc.Temperature,
		MaxTokens:   lc.MaxTokens,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	a.llm = client

	wc := cfg.WebSearch
	if wc.Provider != "tavily" {
		a.Close()
		return nil, fmt.Errorf("unsupported web search provider: %s", wc.Provider)
	}
	searcher, err := websearch.NewTavilyClient(websearch.Options{
		APIKeyEnv:   wc.APIKeyEnv,
		BaseURL:     wc.BaseURL,
		SearchDepth: wc.SearchDepth,
		Timeout:     time.Duration(wc.TimeoutSec) * time.Second,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create web search client: %w", err)
	}

	retrieve := usecase.NewRetrieveUseCase(retrieverFactory(cfg, emb, tok, onProgress, logger), logger)
	gate := usecase.NewRelevanceGate(client, usecase.GateOptions{
		Mode:        cfg.Gate.Mode,
		Sentinel:    cfg.Gate.Sentinel,
		Concurrency: cfg.Gate.Concurrency,
	}, logger)
	fc := cfg.Fallback
	fallback := usecase.NewWebFallback(searcher, client, usecase.NewContextPacker(tok), usecase.FallbackOptions{
		SynthTemperature: fc.SynthTemperature,
		SynthMaxTokens:   fc.SynthMaxTokens,
		SplitTemperature: fc.SplitTemperature,
		SplitMaxTokens:   fc.SplitMaxTokens,
		ContextBudget:    fc.ContextBudget,
	}, logger)

	a.recommend = usecase.NewRecommendUseCase(corpus.Docs, retrieve, gate, fallback, logger)
	a.present = usecase.NewPresentUseCase(corpus.ByIndex, client, cfg.Present.Polish, logger)
	return a, nil
}
