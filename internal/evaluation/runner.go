package evaluation

import (
	"context"
	"time"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/retrieval"
)

// Retrievers bundles the retrieval paths under evaluation. The keyword index
// is exercised through the hybrid retriever with semantic unbuilt or down.
type Retrievers struct {
	Keyword    *retrieval.HybridRetriever
	Hybrid     *retrieval.HybridRetriever
	MultiQuery *retrieval.MultiQueryRetriever
}

// Runner runs evaluation across a set of golden queries for one mode. The
// guardrails cap multi-query expansion so one pathological golden query
// cannot dominate a run.
type Runner struct {
	retrievers Retrievers
	guardrails *Guardrails
}

// NewRunner creates a runner; a nil guardrails gets the default limits.
func NewRunner(retrievers Retrievers, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{retrievers: retrievers, guardrails: guardrails}
}

func (r *Runner) retrieve(ctx context.Context, mode RetrievalMode, gq GoldenQuery) (*retrieval.Response, error) {
	opts := retrieval.Options{Discipline: gq.Discipline}
	switch mode {
	case ModeKeyword:
		return r.retrievers.Keyword.Retrieve(ctx, gq.Query, 10, opts)
	case ModeMultiQuery:
		mq := r.retrievers.MultiQuery
		variants := r.guardrails.LimitVariants(mq.ExpandQuery(ctx, gq.Query, 3))
		return mq.RetrieveVariants(ctx, variants, 10, opts)
	default:
		return r.retrievers.Hybrid.Retrieve(ctx, gq.Query, 10, opts)
	}
}

// Run evaluates every golden query in the given mode and aggregates the
// per-discipline summary. Individual query failures are skipped, not fatal.
func (r *Runner) Run(ctx context.Context, mode RetrievalMode, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		Mode:         mode,
		TotalQueries: len(queries),
		ByDiscipline: make(map[entities.Discipline]*DisciplineSummary),
	}

	for _, gq := range queries {
		start := time.Now()
		resp, err := r.retrieve(ctx, mode, gq)
		duration := time.Since(start)

		if err != nil {
			continue
		}

		retrievedIDs := make([]int, len(resp.Results))
		for i, res := range resp.Results {
			retrievedIDs[i] = res.Record.ID
		}

		result := EvalResult{
			QueryID:      gq.ID,
			Query:        gq.Query,
			Discipline:   gq.Discipline,
			RecallAt10:   RecallAtK(gq.ExpectedIDs, retrievedIDs, 10),
			MRRAt10:      MRRAtK(gq.ExpectedIDs, retrievedIDs, 10),
			ResultCount:  len(resp.Results),
			RetrievedIDs: retrievedIDs,
			Degraded:     resp.Degraded,
			Latency:      duration,
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgRecallAt10 += res.RecallAt10
	s.AvgMRRAt10 += res.MRRAt10
	s.AvgLatency += res.Latency
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}
	if res.Degraded {
		s.DegradedQueries++
	}

	if _, ok := s.ByDiscipline[res.Discipline]; !ok {
		s.ByDiscipline[res.Discipline] = &DisciplineSummary{}
	}
	ds := s.ByDiscipline[res.Discipline]
	ds.Count++
	ds.AvgRecallAt10 += res.RecallAt10
	ds.AvgMRRAt10 += res.MRRAt10
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.AvgRecallAt10 /= n
		s.AvgMRRAt10 /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	for _, ds := range s.ByDiscipline {
		if ds.Count > 0 {
			n := float64(ds.Count)
			ds.AvgRecallAt10 /= n
			ds.AvgMRRAt10 /= n
		}
	}
}
