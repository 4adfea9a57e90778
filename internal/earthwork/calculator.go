package earthwork

import (
	"math"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

// Trench geometry and haul constants
const (
	WorkingSpaceFT   = 2.0
	BeddingDepthFT   = 0.5
	CompactionFactor = 0.90
	TruckCapacityCY  = 10.0
)

// VolumeResult holds the computed trench volumes for one pipe segment,
// rounded to 2 decimals.
type VolumeResult struct {
	TrenchWidthFT       float64 `json:"trench_width_ft"`
	PipeVolumeCY        float64 `json:"pipe_volume_cy"`
	ExcavationCY        float64 `json:"excavation_cy"`
	BeddingCY           float64 `json:"bedding_cy"`
	BackfillCY          float64 `json:"backfill_cy"`
	CompactedBackfillCY float64 `json:"compacted_backfill_cy"`
}

// ProjectTotals aggregates volumes across all pipes that have them
type ProjectTotals struct {
	TotalExcavationCY        float64 `json:"total_excavation_cy"`
	TotalBeddingCY           float64 `json:"total_bedding_cy"`
	TotalBackfillCY          float64 `json:"total_backfill_cy"`
	TotalCompactedBackfillCY float64 `json:"total_compacted_backfill_cy"`
	EstimatedTruckLoads      int     `json:"estimated_truck_loads"`
}

// TrenchWidthFT returns trench width for a pipe diameter: the pipe's outer
// dimension in feet plus working space on both sides.
func TrenchWidthFT(diameterIn float64) float64 {
	return diameterIn/12.0 + WorkingSpaceFT
}

// PipeVolumeCY returns the cylindrical volume displaced by the pipe barrel
func PipeVolumeCY(diameterIn, lengthFT float64) float64 {
	radiusFT := diameterIn / 24.0
	return math.Pi * radiusFT * radiusFT * lengthFT / 27.0
}

// ExcavationCY returns the trench excavation volume
func ExcavationCY(diameterIn, lengthFT, depthFT float64) float64 {
	return TrenchWidthFT(diameterIn) * depthFT * lengthFT / 27.0
}

// BeddingCY returns the granular bedding volume below the pipe
func BeddingCY(diameterIn, lengthFT float64) float64 {
	return TrenchWidthFT(diameterIn) * BeddingDepthFT * lengthFT / 27.0
}

// BackfillCY returns excavation minus pipe and bedding volume, clamped at
// zero for shallow trenches where the pipe displaces more than was dug.
func BackfillCY(excavationCY, pipeVolumeCY, beddingCY float64) float64 {
	return math.Max(0, excavationCY-pipeVolumeCY-beddingCY)
}

// CompactedBackfillCY returns the loose volume needed to achieve the
// compacted in-place backfill volume.
func CompactedBackfillCY(backfillCY float64) float64 {
	return backfillCY / CompactionFactor
}

// ResolveDepthFT determines trench depth for a pipe record. Priority:
// rim (or ground) elevation minus inbound invert, then the explicit depth
// field. Returns false when no depth can be resolved; callers skip the
// volume calculation rather than assume zero.
func ResolveDepthFT(pipe *entities.PipeDetection) (float64, bool) {
	var surface *float64
	if pipe.RimElevationFT != nil {
		surface = pipe.RimElevationFT
	} else if pipe.GroundLevelFT != nil {
		surface = pipe.GroundLevelFT
	}
	if surface != nil && pipe.InvertInFT != nil {
		depth := *surface - *pipe.InvertInFT
		if depth > 0 {
			return depth, true
		}
	}
	if pipe.DepthFT != nil && *pipe.DepthFT > 0 {
		return *pipe.DepthFT, true
	}
	return 0, false
}

// CalculateForPipe computes all trench volumes for a pipe record. Returns
// nil when diameter, length, or depth cannot be resolved; absence is a
// degraded state, not an error.
func CalculateForPipe(pipe *entities.PipeDetection) *VolumeResult {
	if pipe.DiameterIn <= 0 || pipe.LengthFT <= 0 {
		return nil
	}
	depthFT, ok := ResolveDepthFT(pipe)
	if !ok {
		return nil
	}

	width := TrenchWidthFT(pipe.DiameterIn)
	pipeVol := PipeVolumeCY(pipe.DiameterIn, pipe.LengthFT)
	excavation := ExcavationCY(pipe.DiameterIn, pipe.LengthFT, depthFT)
	bedding := BeddingCY(pipe.DiameterIn, pipe.LengthFT)
	backfill := BackfillCY(excavation, pipeVol, bedding)

	return &VolumeResult{
		TrenchWidthFT:       round2(width),
		PipeVolumeCY:        round2(pipeVol),
		ExcavationCY:        round2(excavation),
		BeddingCY:           round2(bedding),
		BackfillCY:          round2(backfill),
		CompactedBackfillCY: round2(CompactedBackfillCY(backfill)),
	}
}

// Attach writes a volume result onto a pipe record's derived fields
func Attach(pipe *entities.PipeDetection, v *VolumeResult) {
	if v == nil {
		return
	}
	pipe.TrenchWidthFT = entities.Float64Ptr(v.TrenchWidthFT)
	pipe.PipeVolumeCY = entities.Float64Ptr(v.PipeVolumeCY)
	pipe.ExcavationCY = entities.Float64Ptr(v.ExcavationCY)
	pipe.BeddingCY = entities.Float64Ptr(v.BeddingCY)
	pipe.BackfillCY = entities.Float64Ptr(v.BackfillCY)
	pipe.CompactedBackfillCY = entities.Float64Ptr(v.CompactedBackfillCY)
}

// CalculateProjectTotals sums volumes over pipes that have an excavation
// volume attached. Truck loads assume 10 CY per load.
func CalculateProjectTotals(pipes []entities.PipeDetection) ProjectTotals {
	var totals ProjectTotals
	for i := range pipes {
		p := &pipes[i]
		if p.ExcavationCY == nil {
			continue
		}
		totals.TotalExcavationCY += *p.ExcavationCY
		if p.BeddingCY != nil {
			totals.TotalBeddingCY += *p.BeddingCY
		}
		if p.BackfillCY != nil {
			totals.TotalBackfillCY += *p.BackfillCY
		}
		if p.CompactedBackfillCY != nil {
			totals.TotalCompactedBackfillCY += *p.CompactedBackfillCY
		}
	}
	totals.EstimatedTruckLoads = int(math.Round(totals.TotalExcavationCY / TruckCapacityCY))
	totals.TotalExcavationCY = round2(totals.TotalExcavationCY)
	totals.TotalBeddingCY = round2(totals.TotalBeddingCY)
	totals.TotalBackfillCY = round2(totals.TotalBackfillCY)
	totals.TotalCompactedBackfillCY = round2(totals.TotalCompactedBackfillCY)
	return totals
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
