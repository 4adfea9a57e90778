package evaluation

import (
	"time"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

// RetrievalMode selects which retrieval path an evaluation run exercises.
type RetrievalMode string

const (
	ModeKeyword    RetrievalMode = "keyword"
	ModeHybrid     RetrievalMode = "hybrid"
	ModeMultiQuery RetrievalMode = "multiquery"
)

// ValidModes returns all valid retrieval modes.
func ValidModes() []RetrievalMode {
	return []RetrievalMode{ModeKeyword, ModeHybrid, ModeMultiQuery}
}

// IsValid checks if the mode value is one of the defined constants.
func (m RetrievalMode) IsValid() bool {
	switch m {
	case ModeKeyword, ModeHybrid, ModeMultiQuery:
		return true
	}
	return false
}

// GoldenQuery represents a labeled test query with expected outcomes.
type GoldenQuery struct {
	ID          string              `json:"id"`
	Query       string              `json:"query"`
	Discipline  entities.Discipline `json:"discipline,omitempty"`
	ExpectedIDs []int               `json:"expected_record_ids"`
	Difficulty  string              `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID      string
	Query        string
	Discipline   entities.Discipline
	RecallAt10   float64
	MRRAt10      float64
	ResultCount  int
	RetrievedIDs []int
	Degraded     bool
	Latency      time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries for one mode.
type EvalSummary struct {
	Mode            RetrievalMode
	TotalQueries    int
	AvgRecallAt10   float64
	AvgMRRAt10      float64
	AvgLatency      time.Duration
	QueriesWithHits int // queries that returned at least 1 result
	DegradedQueries int
	ByDiscipline    map[entities.Discipline]*DisciplineSummary
}

// DisciplineSummary holds metrics grouped by discipline.
type DisciplineSummary struct {
	Count         int
	AvgRecallAt10 float64
	AvgMRRAt10    float64
}
