package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"labrec/internal/domain"
)

const defaultBaseURL = "https://api.tavily.com"

// Options configures the Tavily client.
type Options struct {
	APIKeyEnv   string
	BaseURL     string
	SearchDepth string // "basic" or "advanced"
	Timeout     time.Duration
}

// TavilyClient calls the Tavily search REST API.
type TavilyClient struct {
	baseURL     string
	apiKey      string
	searchDepth string
	client      *http.Client
}

// searchRequest asks for result snippets only; Tavily's own answer and the
// raw page content are never requested.
type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		PublishedDate string  `json:"published_date"`
		Score         float64 `json:"score"`
	} `json:"results"`
	Detail any `json:"detail,omitempty"`
}

func NewTavilyClient(opts Options) (*TavilyClient, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}
	return newTavilyClient(apiKey, opts), nil
}

func newTavilyClient(apiKey string, opts Options) *TavilyClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	depth := opts.SearchDepth
	if depth == "" {
		depth = "advanced"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TavilyClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		searchDepth: depth,
		client:      &http.Client{Timeout: timeout},
	}
}

// Search returns up to maxResults hits for query.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	jsonData, err := json.Marshal(searchRequest{
		APIKey:            c.apiKey,
		Query:             query,
		SearchDepth:       c.searchDepth,
		MaxResults:        maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]domain.WebResult, 0, len(sr.Results))
	for _, r := range sr.Results {
		results = append(results, domain.WebResult{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
