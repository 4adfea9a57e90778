package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
)

const (
	defaultTavilyBaseURL = "https://api.tavily.com"
	defaultHTTPTimeout   = 15 * time.Second
	defaultMaxResults    = 5
)

// construction standards bodies worth prioritizing in results
var standardsDomains = []string{
	"iccsafe.org",
	"astm.org",
	"awwa.org",
	"asce.org",
}

// TavilySearchProvider implements ExternalSearch using the Tavily search API
type TavilySearchProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTavilySearchProvider creates a new Tavily search provider
func NewTavilySearchProvider(apiKey, baseURL string) providers.ExternalSearch {
	return NewTavilySearchProviderWithOptions(apiKey, baseURL, nil)
}

// NewTavilySearchProviderWithOptions allows overriding the HTTP client (used for tests)
func NewTavilySearchProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.ExternalSearch {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultTavilyBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &TavilySearchProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Search runs a web search for the given query
func (p *TavilySearchProvider) Search(ctx context.Context, query string) (*providers.SearchResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("tavily api key is required")
	}

	payload := tavilySearchRequest{
		APIKey:         p.apiKey,
		Query:          query,
		SearchDepth:    "basic",
		MaxResults:     defaultMaxResults,
		IncludeDomains: standardsDomains,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search request returned status %d", resp.StatusCode)
	}

	var decoded tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]providers.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, providers.SearchResult{
			Title:   r.Title,
			Content: r.Content,
			URL:     r.URL,
		})
	}

	return &providers.SearchResponse{Results: results}, nil
}

type tavilySearchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilySearchResponse struct {
	Query   string               `json:"query"`
	Results []tavilySearchResult `json:"results"`
}

type tavilySearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
