package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labrec/internal/domain"
	"labrec/internal/usecase"
)

type fakeRecommender struct {
	gotQuery string
	gotK     int
	err      error
}

func (f *fakeRecommender) Recommend(ctx context.Context, query string, k int) (*usecase.Result, error) {
	f.gotQuery, f.gotK = query, k
	if f.err != nil {
		return nil, f.err
	}
	recs := make([]domain.Recommendation, k)
	for i := range recs {
		recs[i] = domain.Recommendation{Index: i, LabInfo: "lab", Reason: "fits"}
	}
	return &usecase.Result{Query: query, K: k, State: domain.StateHasResults.String(), Recommendations: recs}, nil
}

type fakePresenter struct{}

func (fakePresenter) Present(ctx context.Context, recs []domain.Recommendation) []string {
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = fmt.Sprintf("block %d", i+1)
	}
	return out
}

func newTestRouter(t *testing.T, rec Recommender) http.Handler {
	t.Helper()
	h, err := NewRouter(rec, fakePresenter{}, Options{DefaultK: 3, MaxTopK: 5}, nil)
	require.NoError(t, err)
	return h
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t, &fakeRecommender{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestRecommendGet(t *testing.T) {
	rec := &fakeRecommender{}
	req := httptest.NewRequest(http.MethodGet, "/v1/recommend?q=robot+vision&k=2&render=true", nil)
	req.Header.Set(traceHeader, "trace-123")
	rr := httptest.NewRecorder()
	newTestRouter(t, rec).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "trace-123", rr.Header().Get(traceHeader))
	assert.Equal(t, "robot vision", rec.gotQuery)
	assert.Equal(t, 2, rec.gotK)

	var resp struct {
		TraceID         string                  `json:"trace_id"`
		State           string                  `json:"state"`
		Recommendations []domain.Recommendation `json:"recommendations"`
		Rendered        []string                `json:"rendered"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "trace-123", resp.TraceID)
	assert.Equal(t, "HAS_RESULTS", resp.State)
	assert.Len(t, resp.Recommendations, 2)
	assert.Equal(t, []string{"block 1", "block 2"}, resp.Rendered)
}

func TestRecommendGet_DefaultKAndGeneratedTraceID(t *testing.T) {
	rec := &fakeRecommender{}
	rr := httptest.NewRecorder()
	newTestRouter(t, rec).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/recommend?q=x", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, rec.gotK)
	assert.NotEmpty(t, rr.Header().Get(traceHeader))
	assert.NotContains(t, rr.Body.String(), "rendered")
}

func TestRecommendPost(t *testing.T) {
	rec := &fakeRecommender{}
	body := strings.NewReader(`{"query":"marine biology","k":4}`)
	rr := httptest.NewRecorder()
	newTestRouter(t, rec).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/recommend", body))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "marine biology", rec.gotQuery)
	assert.Equal(t, 4, rec.gotK)
}

func TestRecommend_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{"k not a number", httptest.NewRequest(http.MethodGet, "/v1/recommend?q=x&k=abc", nil)},
		{"k too large", httptest.NewRequest(http.MethodGet, "/v1/recommend?q=x&k=50", nil)},
		{"k negative", httptest.NewRequest(http.MethodGet, "/v1/recommend?q=x&k=-1", nil)},
		{"bad json", httptest.NewRequest(http.MethodPost, "/v1/recommend", strings.NewReader("{"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			newTestRouter(t, &fakeRecommender{}).ServeHTTP(rr, tt.req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestRecommend_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery), http.StatusBadRequest},
		{domain.ErrEmptyCorpus, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: boom", domain.ErrRetrieverUnavailable), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("other"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		newTestRouter(t, &fakeRecommender{err: tt.err}).
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/recommend?q=x", nil))
		assert.Equal(t, tt.want, rr.Code, tt.err.Error())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t, &fakeRecommender{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewRouter_RequiresRecommender(t *testing.T) {
	_, err := NewRouter(nil, nil, Options{}, nil)
	assert.Error(t, err)
}
