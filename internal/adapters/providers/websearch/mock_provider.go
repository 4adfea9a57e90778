package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
)

// MockSearchProvider implements a deterministic search provider for local development
type MockSearchProvider struct{}

// NewMockSearchProvider creates a new mock search provider
func NewMockSearchProvider() providers.ExternalSearch {
	return &MockSearchProvider{}
}

// Search returns canned results keyed on well-known pipe materials
func (m *MockSearchProvider) Search(ctx context.Context, query string) (*providers.SearchResponse, error) {
	mockResults := map[string][]providers.SearchResult{
		"RCP": {
			{
				Title:   "ASTM C76 Reinforced Concrete Pipe",
				Content: "RCP (Reinforced Concrete Pipe) per ASTM C76 is the standard material for storm drainage culverts, available in Class I through Class V wall strengths.",
				URL:     "https://www.astm.org/c0076",
			},
		},
		"HDPE": {
			{
				Title:   "AWWA C906 HDPE Pressure Pipe",
				Content: "HDPE (High-Density Polyethylene) pipe per AWWA C906 is used for pressurized water transmission and distribution, joined by butt fusion.",
				URL:     "https://www.awwa.org/c906",
			},
		},
		"DIP": {
			{
				Title:   "AWWA C151 Ductile Iron Pipe",
				Content: "DIP (Ductile Iron Pipe) per AWWA C151 serves water mains and force mains, with push-on or mechanical joints and cement mortar lining.",
				URL:     "https://www.awwa.org/c151",
			},
		},
	}

	for material, results := range mockResults {
		if strings.Contains(strings.ToUpper(query), material) {
			return &providers.SearchResponse{Results: results}, nil
		}
	}

	// Generic single result so confidence stays low for unrecognized terms
	return &providers.SearchResponse{
		Results: []providers.SearchResult{
			{
				Title:   "Construction material search",
				Content: fmt.Sprintf("No authoritative standard found for %q.", query),
				URL:     "https://www.iccsafe.org",
			},
		},
	}, nil
}
