package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
)

type stubSearch struct {
	mu        sync.Mutex
	responses map[string]*providers.SearchResponse
	fallback  *providers.SearchResponse
	err       error
	calls     int
}

func (s *stubSearch) Search(_ context.Context, query string) (*providers.SearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if resp, ok := s.responses[query]; ok {
		return resp, nil
	}
	return s.fallback, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func searchResults(contents ...string) *providers.SearchResponse {
	resp := &providers.SearchResponse{}
	for _, c := range contents {
		resp.Results = append(resp.Results, providers.SearchResult{Content: c, URL: "https://example.org"})
	}
	return resp
}

func fpvcItem() entities.UnknownItem {
	return entities.UnknownItem{Type: entities.UnknownTypeMaterial, Value: "FPVC", Count: 1}
}

func TestResolve_GateOneNoSources(t *testing.T) {
	resolver := NewFallbackResolverService(&stubSearch{fallback: searchResults()}, nil, nil)

	res := resolver.Resolve(context.Background(), fpvcItem())
	assert.False(t, res.Success)
	assert.Equal(t, "No external sources found", res.Reason)
	assert.Empty(t, res.Contexts)
}

func TestResolve_GateTwoLowConfidence(t *testing.T) {
	// One context without the term: confidence 0.1, below the 0.4 threshold
	resolver := NewFallbackResolverService(&stubSearch{fallback: searchResults("generic construction article")}, nil, nil)

	res := resolver.Resolve(context.Background(), fpvcItem())
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "Low confidence")
	assert.Contains(t, res.Reason, "results unreliable")
	// Contexts stay attached for debugging
	assert.Len(t, res.Contexts, 1)
}

func TestResolve_GateThreeTermAbsent(t *testing.T) {
	// Five contexts give confidence 0.5 but none mention the term
	resolver := NewFallbackResolverService(&stubSearch{fallback: searchResults(
		"article one", "article two", "article three", "article four", "article five",
	)}, nil, nil)

	res := resolver.Resolve(context.Background(), fpvcItem())
	assert.False(t, res.Success)
	assert.Equal(t, "External sources don't mention this specific term", res.Reason)
}

func TestResolve_Success(t *testing.T) {
	resolver := NewFallbackResolverService(&stubSearch{fallback: searchResults(
		"FPVC is fabric-reinforced PVC pipe per ASTM F1803",
		"fpvc joints are gasketed",
		"FPVC handles sanitary service",
	)}, nil, nil)

	res := resolver.Resolve(context.Background(), fpvcItem())
	assert.True(t, res.Success)
	assert.Len(t, res.Contexts, 3)
	// match ratio 1.0 and 3 of 5 contexts: 0.5 + 0.3
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.Empty(t, res.Reason)
}

func TestResolve_SearchErrorBecomesStructuredFailure(t *testing.T) {
	resolver := NewFallbackResolverService(&stubSearch{err: errors.New("connection refused")}, nil, nil)

	res := resolver.Resolve(context.Background(), fpvcItem())
	assert.False(t, res.Success)
	assert.Equal(t, "API error: connection refused", res.Reason)
}

func TestResolve_CacheSkipsSecondSearch(t *testing.T) {
	search := &stubSearch{fallback: searchResults("FPVC spec", "FPVC joints", "FPVC service")}
	resolver := NewFallbackResolverService(search, newMemoryCache(), nil)

	first := resolver.Resolve(context.Background(), fpvcItem())
	second := resolver.Resolve(context.Background(), fpvcItem())

	assert.True(t, first.Success)
	assert.Equal(t, first.Contexts, second.Contexts)
	assert.Equal(t, 1, search.calls)
}

func TestResolveAll_ResolvesIndependentItems(t *testing.T) {
	search := &stubSearch{responses: map[string]*providers.SearchResponse{
		buildQuery(fpvcItem()): searchResults("FPVC spec one", "FPVC spec two", "FPVC spec three"),
	}, fallback: searchResults()}
	resolver := NewFallbackResolverService(search, nil, nil)

	items := []entities.UnknownItem{
		fpvcItem(),
		{Type: entities.UnknownTypeSymbol, Value: "XQZ", Count: 1},
	}
	results := resolver.ResolveAll(context.Background(), items)

	require.Len(t, results, 2)
	assert.True(t, results["FPVC"].Success)
	assert.False(t, results["XQZ"].Success)
	assert.Equal(t, "No external sources found", results["XQZ"].Reason)
}

func TestBuildQuery_ByType(t *testing.T) {
	assert.Contains(t, buildQuery(fpvcItem()), "ASTM standards")
	assert.Contains(t, buildQuery(entities.UnknownItem{Type: entities.UnknownTypeCode, Value: "IBC-1804"}), "Building code")
	assert.Contains(t, buildQuery(entities.UnknownItem{Type: entities.UnknownTypeSymbol, Value: "XQZ"}), "drawing symbol")
	assert.Contains(t, buildQuery(entities.UnknownItem{Type: entities.UnknownTypeAbbreviation, Value: "XQZ"}), "definition")
}
