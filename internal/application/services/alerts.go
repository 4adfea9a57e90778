package services

import (
	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

// ActionRequiredNoBid is carried on every alert: reconciled counts with
// unresolved unknowns must not be used for bidding without verification.
const ActionRequiredNoBid = "Do not bid from these quantities until all unknown items are manually verified"

var alertRecommendations = []string{
	"Review the flagged items against the original drawings and legend sheets",
	"Confirm unknown materials with the design engineer or project specifications",
	"Re-run the takeoff after adding confirmed materials to the standards knowledge base",
	"Treat affected quantities as preliminary until verification is complete",
}

// BuildAlert constructs a UserAlert for the unresolved items remaining after
// external fallback, or nil when nothing is unresolved. Severity depends on
// composition: any unresolved material is critical; three or more unresolved
// items of other types warn; one or two are informational.
func BuildAlert(unresolved []entities.UnknownItem) *entities.UserAlert {
	if len(unresolved) == 0 {
		return nil
	}

	byType := make(map[entities.UnknownType][]entities.UnknownItem)
	materialCount := 0
	for _, item := range unresolved {
		byType[item.Type] = append(byType[item.Type], item)
		if item.Type == entities.UnknownTypeMaterial {
			materialCount++
		}
	}

	var severity entities.AlertSeverity
	var impact entities.AlertImpact
	switch {
	case materialCount > 0:
		severity = entities.AlertSeverityCritical
		impact = entities.AlertImpact{
			Level:         "HIGH",
			Reason:        "Unknown pipe materials directly affect unit pricing and trench design",
			EstimatedRisk: "$50,000+",
		}
	case len(unresolved) >= 3:
		severity = entities.AlertSeverityWarning
		impact = entities.AlertImpact{
			Level:         "MEDIUM",
			Reason:        "Multiple unverified items may hide scope differences",
			EstimatedRisk: "$5,000-$20,000",
		}
	default:
		severity = entities.AlertSeverityInfo
		impact = entities.AlertImpact{
			Level:         "LOW",
			Reason:        "A small number of unverified items remain",
			EstimatedRisk: "< $5,000",
		}
	}

	return &entities.UserAlert{
		Severity:         severity,
		TotalUnknowns:    len(unresolved),
		UnresolvedByType: byType,
		Impact:           impact,
		Recommendations:  alertRecommendations,
		ActionRequired:   ActionRequiredNoBid,
	}
}
