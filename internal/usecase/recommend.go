package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"labrec/internal/domain"
	"labrec/internal/logging"
	"labrec/internal/metrics"
)

var tracer = otel.Tracer("labrec/usecase")

// Result is the outcome of one recommendation request.
type Result struct {
	Query           string                  `json:"query"`
	K               int                     `json:"k"`
	State           string                  `json:"state"`
	Escalated       bool                    `json:"escalated"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	FallbackError   string                  `json:"fallback_error,omitempty"`

	// Candidates are the top-K documents the gate judged.
	Candidates []domain.Document `json:"-"`
	// Err is the fallback failure, if any. The recommendations are still usable.
	Err error `json:"-"`
}

// RecommendUseCase runs retrieval, the relevance gate and, when nothing
// relevant is left, the web fallback.
type RecommendUseCase struct {
	docs     []domain.Document
	retrieve *RetrieveUseCase
	gate     *RelevanceGate
	fallback *WebFallback
	logger   *zap.Logger
}

func NewRecommendUseCase(
	docs []domain.Document,
	retrieve *RetrieveUseCase,
	gate *RelevanceGate,
	fallback *WebFallback,
	logger *zap.Logger,
) *RecommendUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendUseCase{
		docs:     docs,
		retrieve: retrieve,
		gate:     gate,
		fallback: fallback,
		logger:   logger,
	}
}

// NormalizeQuery applies NFKC and collapses whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(q)), " ")
}

// Recommend returns at most k recommendations for query. Retrieval errors
// are returned; a failed web fallback is reported in Result.Err.
func (u *RecommendUseCase) Recommend(ctx context.Context, query string, k int) (*Result, error) {
	query = NormalizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", domain.ErrInvalidQuery, k)
	}

	logger := logging.FromContext(ctx, u.logger).With(zap.String("query", query), zap.Int("k", k))
	start := time.Now()
	defer func() { metrics.ObserveStage("total", time.Since(start)) }()

	ctx, span := tracer.Start(ctx, "Recommend", trace.WithAttributes(attribute.Int("k", k)))
	defer span.End()

	result := &Result{Query: query, K: k, State: domain.StateProcessing.String()}

	candidates, err := u.runRetrieve(ctx, query, k)
	if err != nil {
		endWithError(span, err)
		return nil, err
	}
	result.Candidates = candidates
	logger.Info("retrieved candidates", zap.Int("candidates", len(candidates)))

	kept, state := u.runGate(ctx, query, candidates)
	if err := ctx.Err(); err != nil {
		endWithError(span, err)
		return nil, err
	}
	result.State = state.String()
	span.SetAttributes(attribute.String("gate.state", result.State))

	if state == domain.StateHasResults {
		result.Recommendations = kept
		metrics.RecordRecommendations("database", len(kept))
		logger.Info("recommendations ready", zap.String("state", result.State), zap.Int("count", len(kept)))
		return result, nil
	}

	metrics.IncEscalation()
	logger.Info("no relevant lab in database, escalating to web search")
	recs, ferr := u.runFallback(ctx, query, k)
	result.Escalated = true
	result.Recommendations = recs
	metrics.RecordRecommendations("web", len(recs))
	if ferr != nil {
		result.Err = ferr
		result.FallbackError = ferr.Error()
		span.RecordError(ferr)
	}
	return result, nil
}

func (u *RecommendUseCase) runRetrieve(ctx context.Context, query string, k int) ([]domain.Document, error) {
	ctx, span := tracer.Start(ctx, "retrieve", trace.WithAttributes(attribute.Int("documents", len(u.docs))))
	defer span.End()
	start := time.Now()
	defer func() { metrics.ObserveStage("retrieve", time.Since(start)) }()

	docs, err := u.retrieve.Retrieve(ctx, u.docs, query, k)
	if err != nil {
		endWithError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates", len(docs)))
	return docs, nil
}

func (u *RecommendUseCase) runGate(ctx context.Context, query string, candidates []domain.Document) ([]domain.Recommendation, domain.GateState) {
	ctx, span := tracer.Start(ctx, "gate", trace.WithAttributes(attribute.Int("candidates", len(candidates))))
	defer span.End()
	start := time.Now()
	defer func() { metrics.ObserveStage("gate", time.Since(start)) }()

	kept, state := u.gate.Filter(ctx, query, candidates)
	span.SetAttributes(attribute.Int("kept", len(kept)))
	return kept, state
}

func (u *RecommendUseCase) runFallback(ctx context.Context, query string, k int) ([]domain.Recommendation, error) {
	ctx, span := tracer.Start(ctx, "fallback")
	defer span.End()
	start := time.Now()
	defer func() { metrics.ObserveStage("fallback", time.Since(start)) }()

	recs, err := u.fallback.Recommend(ctx, query, k)
	if err != nil {
		endWithError(span, err)
	}
	return recs, err
}

func endWithError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
