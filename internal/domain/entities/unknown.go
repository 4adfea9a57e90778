package entities

// UnknownType classifies an unvalidated item found on a drawing
type UnknownType string

const (
	UnknownTypeMaterial     UnknownType = "material"
	UnknownTypeSymbol       UnknownType = "symbol"
	UnknownTypeCode         UnknownType = "code"
	UnknownTypeAbbreviation UnknownType = "abbreviation"
)

// UnknownItem is a material/symbol/code the knowledge base could not
// substantiate. Value is normalized (trimmed, uppercased).
type UnknownItem struct {
	Type    UnknownType `json:"type"`
	Value   string      `json:"value"`
	Context string      `json:"context"`
	Count   int         `json:"count"`
}

// AlertSeverity levels for user alerts
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "INFO"
	AlertSeverityWarning  AlertSeverity = "WARNING"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// AlertImpact describes the estimating risk of unresolved unknowns
type AlertImpact struct {
	Level         string `json:"level"`
	Reason        string `json:"reason"`
	EstimatedRisk string `json:"estimated_risk"`
}

// UserAlert is emitted once per reconciliation run when unresolved unknowns
// remain. Its presence is the explicit signal that the counts are not
// bid-ready without human verification.
type UserAlert struct {
	Severity         AlertSeverity                 `json:"severity"`
	TotalUnknowns    int                           `json:"total_unknowns"`
	UnresolvedByType map[UnknownType][]UnknownItem `json:"unresolved_by_type"`
	Impact           AlertImpact                   `json:"impact"`
	Recommendations  []string                      `json:"recommendations"`
	ActionRequired   string                        `json:"action_required"`
}
