package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/retrieval"
)

func runnerCorpus() []entities.StandardRecord {
	return []entities.StandardRecord{
		{ID: 1, Content: "RCP reinforced concrete pipe for storm drains", Discipline: entities.DisciplineStorm, Category: entities.CategoryMaterial},
		{ID: 2, Content: "PVC SDR 35 for gravity sanitary sewers", Discipline: entities.DisciplineSanitary, Category: entities.CategoryMaterial},
		{ID: 3, Content: "manhole minimum cover requirements", Discipline: entities.DisciplineGeneral, Category: entities.CategoryCoverDepth},
	}
}

// keyword-only setup: no embedder, semantic unbuilt
func testRetrievers() Retrievers {
	hybrid := retrieval.NewHybridRetriever(runnerCorpus(), nil, nil)
	return Retrievers{
		Keyword:    hybrid,
		Hybrid:     hybrid,
		MultiQuery: retrieval.NewMultiQueryRetriever(hybrid, nil, nil),
	}
}

func newTestRunner() *Runner {
	return NewRunner(testRetrievers(), nil)
}

func TestRunner_KeywordMode(t *testing.T) {
	runner := newTestRunner()
	queries := []GoldenQuery{
		{ID: "q1", Query: "reinforced concrete pipe", ExpectedIDs: []int{1}, Difficulty: "easy"},
		{ID: "q2", Query: "unmatched nonsense tokens", ExpectedIDs: []int{2}, Difficulty: "hard"},
	}

	summary, err := runner.Run(context.Background(), ModeKeyword, queries)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalQueries)
	assert.Equal(t, 1, summary.QueriesWithHits)
	// q1 recall 1.0, q2 recall 0.0
	assert.InDelta(t, 0.5, summary.AvgRecallAt10, 1e-9)
	assert.InDelta(t, 0.5, summary.AvgMRRAt10, 1e-9)
}

func TestRunner_MultiQueryModeExpandsAbbreviations(t *testing.T) {
	runner := newTestRunner()
	queries := []GoldenQuery{
		{ID: "q1", Query: "MH minimum cover", ExpectedIDs: []int{3}, Difficulty: "medium"},
	}

	summary, err := runner.Run(context.Background(), ModeMultiQuery, queries)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, summary.AvgRecallAt10, 1e-9)
}

func TestRunner_VariantCapBoundsMultiQueryExpansion(t *testing.T) {
	retrievers := testRetrievers()
	// "MH" alone matches nothing in the corpus; only the "manhole" variant
	// reaches record 3
	queries := []GoldenQuery{
		{ID: "q1", Query: "MH", ExpectedIDs: []int{3}, Difficulty: "medium"},
	}

	capped := NewRunner(retrievers, NewGuardrails(GuardrailConfig{MaxQueryVariants: 1}))
	summary, err := capped.Run(context.Background(), ModeMultiQuery, queries)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, summary.AvgRecallAt10, 1e-9)

	uncapped := NewRunner(retrievers, nil)
	summary, err = uncapped.Run(context.Background(), ModeMultiQuery, queries)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, summary.AvgRecallAt10, 1e-9)
}

func TestRunner_TracksDegradedQueries(t *testing.T) {
	runner := newTestRunner()
	queries := []GoldenQuery{
		{ID: "q1", Query: "reinforced concrete pipe", ExpectedIDs: []int{1}, Difficulty: "easy"},
	}

	// semantic index never built, every query is keyword-only
	summary, err := runner.Run(context.Background(), ModeHybrid, queries)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DegradedQueries)
}

func TestRunner_GroupsByDiscipline(t *testing.T) {
	runner := newTestRunner()
	queries := []GoldenQuery{
		{ID: "q1", Query: "reinforced concrete pipe", Discipline: entities.DisciplineStorm, ExpectedIDs: []int{1}, Difficulty: "easy"},
		{ID: "q2", Query: "gravity sanitary sewers", Discipline: entities.DisciplineSanitary, ExpectedIDs: []int{2}, Difficulty: "easy"},
	}

	summary, err := runner.Run(context.Background(), ModeHybrid, queries)
	require.NoError(t, err)

	require.Contains(t, summary.ByDiscipline, entities.DisciplineStorm)
	require.Contains(t, summary.ByDiscipline, entities.DisciplineSanitary)
	assert.Equal(t, 1, summary.ByDiscipline[entities.DisciplineStorm].Count)
	assert.InDelta(t, 1.0, summary.ByDiscipline[entities.DisciplineStorm].AvgRecallAt10, 1e-9)
}
