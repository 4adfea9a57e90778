package retrieval

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
)

// Options restricts a retrieval call to a corpus subset
type Options struct {
	Discipline entities.Discipline
	Category   entities.Category
}

// Response is the result of one retrieval call. Degraded is set when the
// semantic ranking was unavailable and only keyword results are returned.
type Response struct {
	Results  []entities.RetrievedResult `json:"results"`
	Degraded bool                       `json:"degraded"`
}

// HybridRetriever fuses BM25 keyword ranking with embedding similarity via
// reciprocal rank fusion. Both indices are read-only between rebuilds;
// rebuilds publish atomically so concurrent queries never see a half-built
// index.
type HybridRetriever struct {
	keyword  atomic.Pointer[BM25Index]
	semantic *SemanticIndex
	metrics  *observability.Metrics
}

// NewHybridRetriever builds the keyword index over the given records. The
// semantic index stays unbuilt until BuildSemantic is called; until then
// every query is served keyword-only and flagged degraded.
func NewHybridRetriever(records []entities.StandardRecord, embedder providers.Embedder, metrics *observability.Metrics) *HybridRetriever {
	r := &HybridRetriever{
		semantic: NewSemanticIndex(embedder),
		metrics:  metrics,
	}
	r.keyword.Store(NewBM25Index(records))
	return r
}

// BuildSemantic embeds the corpus and publishes the semantic index
func (r *HybridRetriever) BuildSemantic(ctx context.Context, records []entities.StandardRecord) error {
	return r.semantic.Build(ctx, records)
}

// Rebuild replaces both indices with a fresh corpus. The keyword swap is
// atomic; the semantic index publishes its own snapshot when embedding
// completes.
func (r *HybridRetriever) Rebuild(ctx context.Context, records []entities.StandardRecord) error {
	r.keyword.Store(NewBM25Index(records))
	return r.semantic.Build(ctx, records)
}

// Retrieve runs the keyword and semantic rankings concurrently, each with a
// 2k candidate pool, and fuses them with RRF. Semantic failure degrades to
// keyword-only results rather than failing the query; an empty corpus yields
// an empty response.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int, opts Options) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, "retrieval.hybrid")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("retrieval.query", query),
		attribute.Int("retrieval.k", k),
	)
	start := time.Now()

	pool := k * 2

	var (
		semanticResults []entities.RetrievedResult
		semanticErr     error
		wg              sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		semanticResults, semanticErr = r.semantic.TopK(ctx, query, pool, opts.Discipline, opts.Category)
	}()

	keywordResults := r.keyword.Load().TopK(query, pool, opts.Discipline, opts.Category)
	wg.Wait()

	resp := &Response{}
	if semanticErr != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(semanticErr).
			Str("query", query).
			Msg("Semantic ranking unavailable, serving keyword-only results")
		observability.RecordError(span, semanticErr)
		resp.Degraded = true
	} else if !r.semantic.Ready() {
		resp.Degraded = true
	}

	lists := [][]entities.RetrievedResult{keywordResults}
	if semanticErr == nil && len(semanticResults) > 0 {
		lists = append(lists, semanticResults)
	}
	resp.Results = FuseRRF(lists, k)

	// Appearance annotations are meaningful for multi-query fusion only
	for i := range resp.Results {
		resp.Results[i].AppearedInQueries = 0
		resp.Results[i].AvgRank = 0
	}

	observability.RecordRetrievalMetric(ctx, r.metrics, "hybrid", resp.Degraded, time.Since(start))
	return resp, nil
}
