package entities

// Discipline is the utility category of a pipe or standard
type Discipline string

const (
	DisciplineStorm    Discipline = "storm"
	DisciplineSanitary Discipline = "sanitary"
	DisciplineWater    Discipline = "water"

	// DisciplineGeneral marks standards that apply to every discipline
	DisciplineGeneral Discipline = "general"
)

// Category classifies what a construction standard is about
type Category string

const (
	CategoryCoverDepth Category = "cover_depth"
	CategoryMaterial   Category = "material"
	CategorySlope      Category = "slope"
	CategorySymbol     Category = "symbol"
	CategoryValidation Category = "validation"
)

// StandardRecord is one construction-standard fact. Records are immutable
// after corpus load; ID is assigned by the loader and stable for the life of
// the process.
type StandardRecord struct {
	ID         int        `json:"id" db:"id"`
	Content    string     `json:"content" db:"content"`
	Discipline Discipline `json:"discipline,omitempty" db:"discipline"`
	Category   Category   `json:"category,omitempty" db:"category"`
	Source     string     `json:"source" db:"source"`
	Reference  string     `json:"reference,omitempty" db:"reference"`
}

// RetrievalMethod identifies which index surfaced a result
type RetrievalMethod string

const (
	RetrievalMethodKeyword  RetrievalMethod = "keyword"
	RetrievalMethodSemantic RetrievalMethod = "semantic"
)

// RetrievedResult is a StandardRecord plus retrieval metadata. Score and
// RetrievalMethod describe a single ranking pass; FusedScore and
// RetrievalMethods are filled in by reciprocal rank fusion.
// AppearedInQueries and AvgRank are only set by multi-query retrieval.
type RetrievedResult struct {
	Record            StandardRecord    `json:"record"`
	Score             float64           `json:"score"`
	RetrievalMethod   RetrievalMethod   `json:"retrieval_method,omitempty"`
	FusedScore        float64           `json:"fused_score,omitempty"`
	RetrievalMethods  []RetrievalMethod `json:"retrieval_methods,omitempty"`
	AppearedInQueries int               `json:"appeared_in_queries,omitempty"`
	AvgRank           float64           `json:"avg_rank,omitempty"`
}
