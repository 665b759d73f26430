package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"labrec/internal/domain"
	"labrec/internal/metrics"
	"labrec/internal/port"
)

// FallbackOptions tunes the two completions of the web fallback.
type FallbackOptions struct {
	SynthTemperature float64
	SynthMaxTokens   int
	SplitTemperature float64
	SplitMaxTokens   int
	ContextBudget    int // tokens of web context, <= 0 is unlimited
}

// DefaultFallbackOptions returns the tuned defaults.
func DefaultFallbackOptions() FallbackOptions {
	return FallbackOptions{
		SynthTemperature: 0.7,
		SynthMaxTokens:   1024,
		SplitTemperature: 0.3,
		SplitMaxTokens:   2048,
		ContextBudget:    8000,
	}
}

var recMarkerRe = regexp.MustCompile(`===\s*REC\s*\d+\s*===`)

// WebFallback turns a web search into exactly k recommendations when no
// database lab was relevant.
type WebFallback struct {
	searcher port.WebSearcher
	llm      port.LLM
	packer   *ContextPacker
	opts     FallbackOptions
	logger   *zap.Logger
}

func NewWebFallback(searcher port.WebSearcher, llm port.LLM, packer *ContextPacker, opts FallbackOptions, logger *zap.Logger) *WebFallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebFallback{
		searcher: searcher,
		llm:      llm,
		packer:   packer,
		opts:     opts,
		logger:   logger,
	}
}

// Recommend always returns exactly k entries with Index == domain.WebIndex.
// On failure every entry carries the error text and the error is returned
// alongside them.
func (f *WebFallback) Recommend(ctx context.Context, query string, k int) ([]domain.Recommendation, error) {
	if k < 1 {
		k = 1
	}

	recs, err := f.recommend(ctx, query, k)
	if err != nil {
		metrics.IncFallbackError()
		f.logger.Warn("web fallback failed", zap.String("query", query), zap.Error(err))
		return failureEntries(err, k), err
	}
	return recs, nil
}

func (f *WebFallback) recommend(ctx context.Context, query string, k int) ([]domain.Recommendation, error) {
	results, err := f.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrNoSearchResults
	}

	packed := f.packer.Pack(results, f.opts.ContextBudget)
	f.logger.Debug("web context packed",
		zap.Int("results", len(results)),
		zap.Int("sources", len(packed.Sources)),
		zap.Int("tokens", packed.UsedTokens))

	answer, err := f.llm.GenerateWithSystem(ctx, promptSynthSystem, synthUserPrompt(query, packed.Text),
		port.WithTemperature(f.opts.SynthTemperature),
		port.WithMaxTokens(f.opts.SynthMaxTokens))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSynthesis, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: empty answer", domain.ErrSynthesis)
	}

	var segments []string
	if k > 1 {
		split, err := f.llm.Generate(ctx, splitPrompt(k, answer),
			port.WithTemperature(f.opts.SplitTemperature),
			port.WithMaxTokens(f.opts.SplitMaxTokens))
		if err != nil {
			return nil, fmt.Errorf("%w: split: %w", domain.ErrSynthesis, err)
		}
		segments = SplitSegments(split, k)
	}
	if len(segments) == 0 {
		segments = []string{answer}
	}

	return PadToK(segments, k), nil
}

// SplitSegments returns the non-empty texts that follow each ===REC n===
// marker, in order of appearance, at most k of them. Text before the first
// marker is ignored.
func SplitSegments(text string, k int) []string {
	locs := recMarkerRe.FindAllStringIndex(text, -1)
	segments := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		seg := strings.TrimSpace(text[loc[1]:end])
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == k {
			break
		}
	}
	return segments
}

// PadToK builds k web recommendations from segments, repeating the last
// segment when there are fewer than k. It returns nil for no segments.
func PadToK(segments []string, k int) []domain.Recommendation {
	if len(segments) == 0 {
		return nil
	}
	recs := make([]domain.Recommendation, 0, k)
	for i := 0; i < k; i++ {
		seg := segments[len(segments)-1]
		if i < len(segments) {
			seg = segments[i]
		}
		recs = append(recs, domain.Recommendation{
			Index:   domain.WebIndex,
			LabInfo: seg,
			Reason:  seg,
		})
	}
	return recs
}

func failureEntries(err error, k int) []domain.Recommendation {
	msg := fmt.Sprintf("web search failed: %v", err)
	recs := make([]domain.Recommendation, k)
	for i := range recs {
		recs[i] = domain.Recommendation{
			Index:   domain.WebIndex,
			LabInfo: msg,
			Reason:  msg,
		}
	}
	return recs
}
