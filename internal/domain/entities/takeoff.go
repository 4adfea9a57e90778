package entities

// TakeoffSummary aggregates reconciled pipe counts, footage and volumes
type TakeoffSummary struct {
	TotalPipes          int     `json:"total_pipes"`
	StormPipes          int     `json:"storm_pipes"`
	SanitaryPipes       int     `json:"sanitary_pipes"`
	WaterPipes          int     `json:"water_pipes"`
	StormLF             float64 `json:"storm_lf"`
	SanitaryLF          float64 `json:"sanitary_lf"`
	WaterLF             float64 `json:"water_lf"`
	TotalLF             float64 `json:"total_lf"`
	TotalExcavationCY   float64 `json:"total_excavation_cy"`
	TotalBeddingCY      float64 `json:"total_bedding_cy"`
	TotalBackfillCY     float64 `json:"total_backfill_cy"`
	EstimatedTruckLoads int     `json:"estimated_truck_loads"`

	// DedupDegraded is set when cross-view grouping was inconclusive and the
	// summary is a naive sum over raw detections.
	DedupDegraded bool `json:"dedup_degraded,omitempty"`
}

// ExternalResolution carries the contexts recovered for a material that was
// only substantiated by external sources.
type ExternalResolution struct {
	Material string   `json:"material"`
	Contexts []string `json:"contexts"`
}

// TakeoffResult is the reconciliation output contract
type TakeoffResult struct {
	Summary             TakeoffSummary       `json:"summary"`
	Pipes               []PipeDetection      `json:"pipes"`
	ExternalResolutions []ExternalResolution `json:"external_resolutions,omitempty"`
	UserAlerts          *UserAlert           `json:"user_alerts"`
}
