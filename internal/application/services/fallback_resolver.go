package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
)

// Resolver tuning. Confidence below the threshold fails gate 2 even when
// contexts were returned.
const (
	resolverConfidenceThreshold = 0.4
	resolverSearchTimeout       = 15 * time.Second
	resolverWorkers             = 5
	resolverCacheTTLSeconds     = 24 * 60 * 60
)

// Resolution is the structured outcome of one external lookup. Failure
// reasons are stable strings; Contexts may be attached on low-confidence
// failures for debugging.
type Resolution struct {
	Success    bool     `json:"success"`
	Contexts   []string `json:"contexts"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason,omitempty"`
}

// FallbackResolverService validates unknown items against an external
// knowledge source. It never returns an error: every failure mode maps to a
// structured Resolution.
type FallbackResolverService struct {
	search  providers.ExternalSearch
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewFallbackResolverService creates a resolver. The cache may be nil.
func NewFallbackResolverService(search providers.ExternalSearch, cache providers.CacheProvider, metrics *observability.Metrics) *FallbackResolverService {
	return &FallbackResolverService{search: search, cache: cache, metrics: metrics}
}

// buildQuery phrases the external search by item type
func buildQuery(item entities.UnknownItem) string {
	switch item.Type {
	case entities.UnknownTypeMaterial:
		return fmt.Sprintf("Construction pipe %s material specifications ASTM standards properties", item.Value)
	case entities.UnknownTypeCode:
		return fmt.Sprintf("Building code %s requirements specification construction", item.Value)
	case entities.UnknownTypeSymbol:
		return fmt.Sprintf("Construction drawing symbol %s meaning civil engineering plans", item.Value)
	default:
		return fmt.Sprintf("Construction term %s definition civil engineering", item.Value)
	}
}

// Resolve looks up one unknown item. Three ordered gates decide success:
// contexts must exist, confidence must reach the threshold, and at least one
// context must mention the value literally.
func (s *FallbackResolverService) Resolve(ctx context.Context, item entities.UnknownItem) *Resolution {
	ctx, span := observability.StartSpan(ctx, "resolver.external")
	defer span.End()

	query := buildQuery(item)
	resp, err := s.searchWithCache(ctx, query)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("value", item.Value).
			Msg("External search failed")
		observability.RecordError(span, err)
		observability.RecordResolverMetric(ctx, s.metrics, string(item.Type), false)
		return &Resolution{Success: false, Reason: fmt.Sprintf("API error: %s", err.Error())}
	}

	contexts := formatContexts(resp)
	resolution := s.evaluate(item.Value, contexts)
	observability.RecordResolverMetric(ctx, s.metrics, string(item.Type), resolution.Success)
	return resolution
}

// evaluate applies the three gates in order; earlier gates short-circuit
func (s *FallbackResolverService) evaluate(value string, contexts []string) *Resolution {
	if len(contexts) == 0 {
		return &Resolution{Success: false, Reason: "No external sources found"}
	}

	confidence := computeConfidence(value, contexts)
	if confidence < resolverConfidenceThreshold {
		return &Resolution{
			Success:    false,
			Contexts:   contexts,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Low confidence (%.2f) - results unreliable", confidence),
		}
	}

	if !anyContains(contexts, value) {
		return &Resolution{
			Success:    false,
			Confidence: confidence,
			Reason:     "External sources don't mention this specific term",
		}
	}

	return &Resolution{Success: true, Contexts: contexts, Confidence: confidence}
}

// computeConfidence blends context volume with the fraction of contexts that
// mention the term, each worth half. Five or more contexts max out the
// volume half.
func computeConfidence(value string, contexts []string) float64 {
	matched := 0
	for _, c := range contexts {
		if containsFold(c, value) {
			matched++
		}
	}
	matchRatio := float64(matched) / float64(len(contexts))
	volume := float64(len(contexts))
	if volume > 5 {
		volume = 5
	}
	return matchRatio*0.5 + volume/5.0*0.5
}

func anyContains(contexts []string, value string) bool {
	for _, c := range contexts {
		if containsFold(c, value) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToUpper(haystack), strings.ToUpper(needle))
}

func formatContexts(resp *providers.SearchResponse) []string {
	if resp == nil {
		return nil
	}
	var contexts []string
	for _, r := range resp.Results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		if r.Title != "" {
			contexts = append(contexts, fmt.Sprintf("%s: %s", r.Title, r.Content))
		} else {
			contexts = append(contexts, r.Content)
		}
	}
	return contexts
}

// searchWithCache consults the cache before the external service; responses
// are cached for a day since standards content is effectively static.
func (s *FallbackResolverService) searchWithCache(ctx context.Context, query string) (*providers.SearchResponse, error) {
	key := "websearch:" + hashQuery(query)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			var cached providers.SearchResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.RecordCacheHit(ctx, s.metrics, "websearch")
				return &cached, nil
			}
		}
		observability.RecordCacheMiss(ctx, s.metrics, "websearch")
	}

	searchCtx, cancel := context.WithTimeout(ctx, resolverSearchTimeout)
	defer cancel()
	resp, err := s.search.Search(searchCtx, query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && resp != nil {
		if data, err := json.Marshal(resp); err == nil {
			_ = s.cache.Set(ctx, key, data, resolverCacheTTLSeconds)
		}
	}
	return resp, nil
}

func hashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

// ResolveAll resolves independent items through a bounded worker pool and
// returns resolutions keyed by item value.
func (s *FallbackResolverService) ResolveAll(ctx context.Context, items []entities.UnknownItem) map[string]*Resolution {
	results := make(map[string]*Resolution, len(items))
	if len(items) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, resolverWorkers)

	for _, item := range items {
		wg.Add(1)
		go func(item entities.UnknownItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := s.Resolve(ctx, item)
			mu.Lock()
			results[item.Value] = res
			mu.Unlock()
		}(item)
	}
	wg.Wait()
	return results
}
