package retrieval

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
)

// constructionAbbreviations maps drawing abbreviations to the full terms
// used in written standards.
var constructionAbbreviations = map[string]string{
	"MH":   "manhole",
	"SSMH": "sanitary sewer manhole",
	"CB":   "catch basin",
	"DI":   "ductile iron",
	"WM":   "water main",
	"HYD":  "hydrant",
	"RCP":  "reinforced concrete pipe",
	"PVC":  "polyvinyl chloride",
	"HDPE": "high density polyethylene",
	"IE":   "invert elevation",
	"INV":  "invert elevation",
	"SS":   "sanitary sewer",
	"SD":   "storm drain",
	"FES":  "flared end section",
	"GV":   "gate valve",
}

// MultiQueryRetriever expands one query into several variants and fuses
// their hybrid results by document identity.
type MultiQueryRetriever struct {
	hybrid    *HybridRetriever
	generator providers.TextGenerator
	metrics   *observability.Metrics
}

// NewMultiQueryRetriever wraps a hybrid retriever. The generator may be nil;
// expansion then relies on abbreviation rules alone.
func NewMultiQueryRetriever(hybrid *HybridRetriever, generator providers.TextGenerator, metrics *observability.Metrics) *MultiQueryRetriever {
	return &MultiQueryRetriever{hybrid: hybrid, generator: generator, metrics: metrics}
}

// ExpandAbbreviations produces one variant per abbreviation present in the
// query, replacing the abbreviation token with its expansion. The original
// query is not included.
func ExpandAbbreviations(query string) []string {
	var variants []string
	seen := map[string]struct{}{query: {}}
	for abbr, full := range constructionAbbreviations {
		re := regexp.MustCompile(`(?i)\b` + abbr + `\b`)
		if !re.MatchString(query) {
			continue
		}
		variant := re.ReplaceAllString(query, full)
		if _, ok := seen[variant]; ok {
			continue
		}
		seen[variant] = struct{}{}
		variants = append(variants, variant)
	}
	return variants
}

// ExpandQuery builds the full variant list: the original query, rule-based
// abbreviation expansions, then generated rephrasings. Generation failure is
// logged and ignored; the original query always survives and always comes
// first, so truncating the list keeps it.
func (m *MultiQueryRetriever) ExpandQuery(ctx context.Context, query string, numVariants int) []string {
	variants := []string{query}
	seen := map[string]struct{}{normalizeVariant(query): {}}

	for _, v := range ExpandAbbreviations(query) {
		if _, ok := seen[normalizeVariant(v)]; ok {
			continue
		}
		seen[normalizeVariant(v)] = struct{}{}
		variants = append(variants, v)
	}

	if m.generator != nil && numVariants > 0 {
		generated, err := m.generator.GenerateVariants(ctx, query, numVariants)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("query", query).
				Msg("Variant generation failed, using rule-based variants only")
		} else {
			for _, v := range generated {
				v = strings.TrimSpace(v)
				if v == "" {
					continue
				}
				if _, ok := seen[normalizeVariant(v)]; ok {
					continue
				}
				seen[normalizeVariant(v)] = struct{}{}
				variants = append(variants, v)
			}
		}
	}
	return variants
}

func normalizeVariant(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// RetrieveExpanded expands the query and retrieves every variant with a
// widened candidate pool, fusing the per-variant lists with RRF keyed by
// document identity. Results carry how many variants surfaced each document
// and its mean rank.
func (m *MultiQueryRetriever) RetrieveExpanded(ctx context.Context, query string, k int, opts Options, numVariants int) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, "retrieval.multiquery")
	defer span.End()
	start := time.Now()

	variants := m.ExpandQuery(ctx, query, numVariants)
	observability.LoggerFromContext(ctx).Debug().
		Str("query", query).
		Int("variants", len(variants)).
		Msg("Expanded query")

	return m.retrieveVariants(ctx, variants, k, opts, start)
}

// RetrieveVariants retrieves an already-expanded variant list. Callers that
// cap or reorder the expansion (the evaluation guardrails do) go through
// this entry point.
func (m *MultiQueryRetriever) RetrieveVariants(ctx context.Context, variants []string, k int, opts Options) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, "retrieval.multiquery")
	defer span.End()
	return m.retrieveVariants(ctx, variants, k, opts, time.Now())
}

func (m *MultiQueryRetriever) retrieveVariants(ctx context.Context, variants []string, k int, opts Options, start time.Time) (*Response, error) {
	var (
		lists    [][]entities.RetrievedResult
		degraded bool
	)
	for _, variant := range variants {
		resp, err := m.hybrid.Retrieve(ctx, variant, k*2, opts)
		if err != nil {
			return nil, err
		}
		if resp.Degraded {
			degraded = true
		}
		if len(resp.Results) > 0 {
			lists = append(lists, resp.Results)
		}
	}

	fused := FuseRRF(lists, k)
	// Cross-variant fusion does not distinguish methods per appearance
	for i := range fused {
		fused[i].RetrievalMethods = nil
	}

	observability.RecordRetrievalMetric(ctx, m.metrics, "multiquery", degraded, time.Since(start))
	return &Response{Results: fused, Degraded: degraded}, nil
}
