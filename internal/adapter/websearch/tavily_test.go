package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilyClient_Search(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Quantum Lab","url":"https://q.example","content":"qubits","published_date":"2024-01-02","score":0.9},
			{"title":"Photonics Group","url":"https://p.example","content":"lasers"}
		]}`))
	}))
	defer srv.Close()

	c := newTavilyClient("secret", Options{BaseURL: srv.URL + "/"})
	results, err := c.Search(context.Background(), "quantum computing labs", 3)
	require.NoError(t, err)

	assert.Equal(t, "secret", got.APIKey)
	assert.Equal(t, "quantum computing labs", got.Query)
	assert.Equal(t, "advanced", got.SearchDepth)
	assert.Equal(t, 3, got.MaxResults)

	require.Len(t, results, 2)
	assert.Equal(t, "Quantum Lab", results[0].Title)
	assert.Equal(t, "2024-01-02", results[0].PublishedDate)
	assert.Equal(t, "https://p.example", results[1].URL)
}

func TestTavilyClient_RequestsSnippetsOnly(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"results":[{"title":"A","url":"https://a.example","content":"snippet"}]}`))
	}))
	defer srv.Close()

	c := newTavilyClient("k", Options{BaseURL: srv.URL})
	results, err := c.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "snippet", results[0].Content)

	assert.Equal(t, false, body["include_answer"])
	assert.Equal(t, false, body["include_raw_content"])
}

func TestTavilyClient_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := newTavilyClient("k", Options{BaseURL: srv.URL})
	results, err := c.Search(context.Background(), "nothing", 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTavilyClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer srv.Close()

	c := newTavilyClient("bad", Options{BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewTavilyClient_MissingKey(t *testing.T) {
	t.Setenv("LABREC_TEST_TAVILY", "")
	_, err := NewTavilyClient(Options{APIKeyEnv: "LABREC_TEST_TAVILY"})
	assert.Error(t, err)
}
