package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"labrec/internal/domain"
)

// Options configures fusion of the dense and sparse rankings.
type Options struct {
	DenseWeight  float64
	SparseWeight float64
	RRFK         int // RRF constant (typically 60)
	OnProgress   ProgressFunc
}

// HybridRetriever combines vector similarity search with BM25 lexical search
// using weighted Reciprocal Rank Fusion.
type HybridRetriever struct {
	dense  *SemanticRetriever
	sparse *BM25Retriever
	opts   Options
	logger *zap.Logger
	built  bool
}

// NewHybridRetriever creates a new hybrid retriever.
func NewHybridRetriever(dense *SemanticRetriever, sparse *BM25Retriever, opts Options, logger *zap.Logger) *HybridRetriever {
	if opts.RRFK <= 0 {
		opts.RRFK = 60
	}
	if opts.DenseWeight < 0 {
		opts.DenseWeight = 0
	}
	if opts.SparseWeight < 0 {
		opts.SparseWeight = 0
	}
	if opts.DenseWeight+opts.SparseWeight == 0 {
		opts.DenseWeight = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dense.onProgress = opts.OnProgress

	return &HybridRetriever{
		dense:  dense,
		sparse: sparse,
		opts:   opts,
		logger: logger,
	}
}

// Build indexes docs in both retrievers, replacing any previous index.
// Documents sharing an index are indexed once.
func (r *HybridRetriever) Build(ctx context.Context, docs []domain.Document) error {
	r.built = false
	if len(docs) == 0 {
		return domain.ErrEmptyCorpus
	}

	unique := make([]domain.Document, 0, len(docs))
	seen := make(map[int]struct{}, len(docs))
	for _, doc := range docs {
		if _, dup := seen[doc.Index]; dup {
			r.logger.Warn("duplicate document index ignored", zap.Int("index", doc.Index))
			continue
		}
		seen[doc.Index] = struct{}{}
		unique = append(unique, doc)
	}

	if err := r.sparse.Index(unique); err != nil {
		return fmt.Errorf("%w: sparse index: %w", domain.ErrRetrieverUnavailable, err)
	}
	if err := r.dense.Index(ctx, unique); err != nil {
		return fmt.Errorf("%w: dense index: %w", domain.ErrRetrieverUnavailable, err)
	}

	r.built = true
	r.logger.Debug("hybrid index built", zap.Int("documents", len(unique)))
	return nil
}

// Search returns at most k candidates ordered by fused score.
func (r *HybridRetriever) Search(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	if !r.built {
		return nil, fmt.Errorf("%w: index not built", domain.ErrRetrieverUnavailable)
	}
	if k <= 0 {
		return nil, nil
	}

	denseResults, err := r.dense.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieverUnavailable, err)
	}

	sparseResults, err := r.sparse.Search(query, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieverUnavailable, err)
	}

	fused := Fuse(denseResults, sparseResults, r.opts.DenseWeight, r.opts.SparseWeight, r.opts.RRFK)
	if len(fused) > k {
		fused = fused[:k]
	}

	r.logger.Debug("hybrid search",
		zap.Int("dense", len(denseResults)),
		zap.Int("sparse", len(sparseResults)),
		zap.Int("fused", len(fused)))

	return fused, nil
}

type fusedEntry struct {
	candidate  domain.Candidate
	denseRank  int
	sparseRank int
}

// Fuse merges two rankings with weighted Reciprocal Rank Fusion:
// score(d) = Σ w_i / (rrfK + rank_i(d)), ranks 1-based. Each index appears
// once. Ties go to the better dense rank, then the better sparse rank, then
// the lower index.
func Fuse(dense, sparse []domain.Candidate, denseWeight, sparseWeight float64, rrfK int) []domain.Candidate {
	entries := make(map[int]*fusedEntry)

	add := func(list []domain.Candidate, weight float64, isDense bool) {
		for rank, c := range list {
			e, exists := entries[c.Index]
			if !exists {
				e = &fusedEntry{
					candidate:  domain.Candidate{Index: c.Index, Text: c.Text},
					denseRank:  math.MaxInt,
					sparseRank: math.MaxInt,
				}
				entries[c.Index] = e
			}
			if e.candidate.Text == "" {
				e.candidate.Text = c.Text
			}

			// A list may repeat an index; only its best rank counts.
			if isDense {
				if rank+1 >= e.denseRank {
					continue
				}
				e.denseRank = rank + 1
			} else {
				if rank+1 >= e.sparseRank {
					continue
				}
				e.sparseRank = rank + 1
			}
			e.candidate.Score += weight / float64(rrfK+rank+1)
		}
	}
	add(dense, denseWeight, true)
	add(sparse, sparseWeight, false)

	fused := make([]*fusedEntry, 0, len(entries))
	for _, e := range entries {
		fused = append(fused, e)
	}

	sort.Slice(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.candidate.Score != b.candidate.Score {
			return a.candidate.Score > b.candidate.Score
		}
		if a.denseRank != b.denseRank {
			return a.denseRank < b.denseRank
		}
		if a.sparseRank != b.sparseRank {
			return a.sparseRank < b.sparseRank
		}
		return a.candidate.Index < b.candidate.Index
	})

	out := make([]domain.Candidate, len(fused))
	for i, e := range fused {
		out[i] = e.candidate
		out[i].Rank = i + 1
	}
	return out
}
