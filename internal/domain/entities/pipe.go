package entities

import (
	"fmt"
	"strings"
)

// PipeDetection is one candidate pipe segment extracted from a drawing by the
// upstream vision step. Optional measurements are pointers so that "absent"
// is distinguishable from zero. The volume fields are derived and additive;
// reconciliation never alters the detected fields.
type PipeDetection struct {
	ID             string     `json:"id,omitempty"`
	Discipline     Discipline `json:"discipline"`
	Material       string     `json:"material,omitempty"`
	DiameterIn     float64    `json:"diameter_in"`
	LengthFT       float64    `json:"length_ft"`
	InvertInFT     *float64   `json:"invert_in_ft,omitempty"`
	InvertOutFT    *float64   `json:"invert_out_ft,omitempty"`
	RimElevationFT *float64   `json:"rim_elevation_ft,omitempty"`
	GroundLevelFT  *float64   `json:"ground_level_ft,omitempty"`
	DepthFT        *float64   `json:"depth_ft,omitempty"`
	FromStructure  string     `json:"from_structure,omitempty"`
	ToStructure    string     `json:"to_structure,omitempty"`
	Station        string     `json:"station,omitempty"`
	Source         string     `json:"source,omitempty"`

	// Derived volume fields, attached by reconciliation when diameter,
	// length and depth are resolvable. Nil means calculation was skipped.
	TrenchWidthFT       *float64 `json:"trench_width_ft,omitempty"`
	PipeVolumeCY        *float64 `json:"pipe_volume_cy,omitempty"`
	ExcavationCY        *float64 `json:"excavation_cy,omitempty"`
	BeddingCY           *float64 `json:"bedding_cy,omitempty"`
	BackfillCY          *float64 `json:"backfill_cy,omitempty"`
	CompactedBackfillCY *float64 `json:"compacted_backfill_cy,omitempty"`

	// MaterialStatus records how the material was validated:
	// "known", "externally_resolved", or "unresolved".
	MaterialStatus string `json:"material_status,omitempty"`
}

// Material validation statuses
const (
	MaterialStatusKnown              = "known"
	MaterialStatusExternallyResolved = "externally_resolved"
	MaterialStatusUnresolved         = "unresolved"
)

// Validate rejects records the pipeline cannot classify at all. Missing or
// non-positive diameter/length are accepted: such records still flow through
// counting and deduplication, only their volume calculation is skipped.
func (p *PipeDetection) Validate() error {
	switch p.Discipline {
	case DisciplineStorm, DisciplineSanitary, DisciplineWater:
		return nil
	default:
		return fmt.Errorf("unrecognized discipline %q", p.Discipline)
	}
}

// NormalizedMaterial returns the trimmed, uppercased material label, or ""
// when the label is empty or an unknown placeholder.
func (p *PipeDetection) NormalizedMaterial() string {
	m := strings.ToUpper(strings.TrimSpace(p.Material))
	switch m {
	case "", "UNKNOWN", "N/A":
		return ""
	}
	return m
}

// FieldRichness counts the populated optional fields. Deduplication keeps
// the richest record in each group.
func (p *PipeDetection) FieldRichness() int {
	n := 0
	if p.Material != "" {
		n++
	}
	for _, f := range []*float64{p.InvertInFT, p.InvertOutFT, p.RimElevationFT, p.GroundLevelFT, p.DepthFT} {
		if f != nil {
			n++
		}
	}
	for _, s := range []string{p.FromStructure, p.ToStructure, p.Station, p.Source} {
		if s != "" {
			n++
		}
	}
	return n
}

// Float64Ptr is a convenience for building detections with optional fields
func Float64Ptr(v float64) *float64 {
	return &v
}
