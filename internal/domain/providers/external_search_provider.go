package providers

import (
	"context"
)

// SearchResult is one hit from an external knowledge source
type SearchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// SearchResponse wraps the results of an external search call
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ExternalSearch defines the interface for external knowledge lookup used by
// the fallback resolver
type ExternalSearch interface {
	// Search issues a free-text query to the external source
	Search(ctx context.Context, query string) (*SearchResponse, error)
}
