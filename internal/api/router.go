package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"labrec/internal/domain"
	"labrec/internal/logging"
	"labrec/internal/usecase"
)

const (
	traceHeader = "X-Trace-Id"
)

// Recommender runs one recommendation request.
type Recommender interface {
	Recommend(ctx context.Context, query string, k int) (*usecase.Result, error)
}

// Presenter renders recommendations for display.
type Presenter interface {
	Present(ctx context.Context, recs []domain.Recommendation) []string
}

// Options configures the router.
type Options struct {
	DefaultK int
	MaxTopK  int
	Timeout  time.Duration
}

// RecommendRequest is the POST body of /v1/recommend.
type RecommendRequest struct {
	Query  string `json:"query"`
	K      int    `json:"k"`
	Render bool   `json:"render"`
}

// RecommendResponse wraps a pipeline result.
type RecommendResponse struct {
	TraceID string `json:"trace_id"`
	*usecase.Result
	Rendered []string `json:"rendered,omitempty"`
}

type errorResponse struct {
	TraceID string `json:"trace_id,omitempty"`
	Error   string `json:"error"`
}

// Router wires the HTTP endpoints of the recommender.
type Router struct {
	recommender Recommender
	presenter   Presenter
	opts        Options
	logger      *zap.Logger
}

// NewRouter constructs the HTTP router. presenter may be nil.
func NewRouter(rec Recommender, presenter Presenter, opts Options, logger *zap.Logger) (*chi.Mux, error) {
	if rec == nil {
		return nil, fmt.Errorf("recommender is required")
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = 3
	}
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		recommender: rec,
		presenter:   presenter,
		opts:        opts,
		logger:      logger,
	}

	mux := chi.NewRouter()
	mux.Get("/healthz", r.handleHealthz)
	mux.Get("/v1/recommend", r.handleRecommendGet)
	mux.Post("/v1/recommend", r.handleRecommendPost)
	mux.Handle("/metrics", promhttp.Handler())

	return mux, nil
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) handleRecommendGet(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	k, err := parseK(q.Get("k"), r.opts.DefaultK)
	if err != nil {
		r.fail(w, traceID(w, req), http.StatusBadRequest, err)
		return
	}
	render, _ := strconv.ParseBool(q.Get("render"))
	r.recommend(w, req, RecommendRequest{Query: q.Get("q"), K: k, Render: render})
}

func (r *Router) handleRecommendPost(w http.ResponseWriter, req *http.Request) {
	var body RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		r.fail(w, traceID(w, req), http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.K == 0 {
		body.K = r.opts.DefaultK
	}
	r.recommend(w, req, body)
}

func (r *Router) recommend(w http.ResponseWriter, req *http.Request, body RecommendRequest) {
	id := traceID(w, req)
	ctx := logging.WithTraceID(req.Context(), id)

	if body.K < 1 || body.K > r.opts.MaxTopK {
		r.fail(w, id, http.StatusBadRequest, fmt.Errorf("k must be between 1 and %d", r.opts.MaxTopK))
		return
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	result, err := r.recommender.Recommend(ctx, body.Query, body.K)
	if err != nil {
		r.fail(w, id, statusFor(err), err)
		return
	}

	resp := RecommendResponse{TraceID: id, Result: result}
	if body.Render && r.presenter != nil {
		resp.Rendered = r.presenter.Present(ctx, result.Recommendations)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) fail(w http.ResponseWriter, id string, status int, err error) {
	r.logger.Warn("request failed",
		zap.String("trace_id", id),
		zap.Int("status", status),
		zap.Error(err))
	writeJSON(w, status, errorResponse{TraceID: id, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyCorpus), errors.Is(err, domain.ErrRetrieverUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func traceID(w http.ResponseWriter, req *http.Request) string {
	id := req.Header.Get(traceHeader)
	if id == "" {
		id = req.URL.Query().Get("trace_id")
	}
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(traceHeader, id)
	return id
}

func parseK(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	k, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid k %q", value)
	}
	return k, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}
