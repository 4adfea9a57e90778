package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/earthwork"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
	"github.com/estimaihq/takeoff-backend/internal/retrieval"
)

// Dedup thresholds. Diameters are bucketed to 0.1 inch; structure-free
// grouping tolerates 1 ft of length jitter; grouped views whose lengths
// disagree by more than 20% are left unmerged.
const (
	dedupDiameterBucket  = 0.1
	dedupLengthTolerance = 1.0
	dedupLengthConflict  = 0.20
)

// ReconcileInput carries raw vision detections plus an optional legend
// mapping drawing abbreviations to full material names.
type ReconcileInput struct {
	Pipes  []entities.PipeDetection `json:"pipes"`
	Legend map[string]string        `json:"legend,omitempty"`
}

// ReconciliationService deduplicates vision pipe detections across views,
// validates materials against the standards corpus, falls back to external
// sources for unknowns, and attaches trench volumes.
type ReconciliationService struct {
	retriever *retrieval.HybridRetriever
	detector  *UnknownDetectorService
	resolver  *FallbackResolverService
}

// NewReconciliationService creates a reconciliation service. The resolver
// may be nil; unknown materials then go straight to the alert.
func NewReconciliationService(retriever *retrieval.HybridRetriever, detector *UnknownDetectorService, resolver *FallbackResolverService) *ReconciliationService {
	return &ReconciliationService{retriever: retriever, detector: detector, resolver: resolver}
}

// Reconcile runs the two-phase pipeline: cross-view deduplication, then
// material validation. A summary is always produced, even for empty input;
// unresolved unknowns surface as a UserAlert, never as an error.
func (s *ReconciliationService) Reconcile(ctx context.Context, input ReconcileInput) (*entities.TakeoffResult, error) {
	ctx, span := observability.StartSpan(ctx, "reconciliation.reconcile")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.Int("reconciliation.input_pipes", len(input.Pipes)))
	logger := observability.LoggerFromContext(ctx)

	pipes, dedupDegraded := s.deduplicate(input.Pipes)
	logger.Info().
		Int("input", len(input.Pipes)).
		Int("deduplicated", len(pipes)).
		Bool("degraded", dedupDegraded).
		Msg("Cross-view deduplication complete")

	for i := range pipes {
		if pipes[i].ID == "" {
			pipes[i].ID = uuid.NewString()
		}
	}

	externalResolutions, unresolved := s.validateMaterials(ctx, pipes, input.Legend)

	for i := range pipes {
		earthwork.Attach(&pipes[i], earthwork.CalculateForPipe(&pipes[i]))
	}

	result := &entities.TakeoffResult{
		Summary:             buildSummary(pipes, dedupDegraded),
		Pipes:               pipes,
		ExternalResolutions: externalResolutions,
		UserAlerts:          BuildAlert(unresolved),
	}

	if result.UserAlerts != nil {
		logger.Warn().
			Str("severity", string(result.UserAlerts.Severity)).
			Int("unknowns", result.UserAlerts.TotalUnknowns).
			Msg("Reconciliation finished with unresolved unknowns")
	}
	return result, nil
}

// dedupKey identifies a physical pipe segment across plan/profile views
func dedupKey(p *entities.PipeDetection) (string, bool) {
	from := normalizeLabel(p.FromStructure)
	to := normalizeLabel(p.ToStructure)
	if from == "" && to == "" {
		return "", false
	}
	return fmt.Sprintf("%s|%s|%d|%s|%s",
		p.Discipline, p.NormalizedMaterial(), diameterBucket(p.DiameterIn), from, to), true
}

func diameterBucket(d float64) int {
	return int(math.Round(d / dedupDiameterBucket))
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// deduplicate groups detections that describe the same segment and keeps the
// richest record per group. Groups whose member lengths conflict by more
// than 20% are inconclusive: their members pass through unmerged and the
// degraded flag is set so the naive footage is visible rather than silently
// wrong. Running the pass on its own output is a no-op.
func (s *ReconciliationService) deduplicate(pipes []entities.PipeDetection) ([]entities.PipeDetection, bool) {
	var keyed = make(map[string][]entities.PipeDetection)
	var keyOrder []string
	var unkeyed []entities.PipeDetection

	for _, p := range pipes {
		if key, ok := dedupKey(&p); ok {
			if _, seen := keyed[key]; !seen {
				keyOrder = append(keyOrder, key)
			}
			keyed[key] = append(keyed[key], p)
		} else {
			unkeyed = append(unkeyed, p)
		}
	}

	degraded := false
	var out []entities.PipeDetection
	for _, key := range keyOrder {
		group := keyed[key]
		if lengthsConflict(group) {
			degraded = true
			out = append(out, group...)
			continue
		}
		out = append(out, richest(group))
	}

	merged, groupDegraded := mergeUnkeyed(unkeyed)
	out = append(out, merged...)
	return out, degraded || groupDegraded
}

// lengthsConflict reports whether any two records in a group disagree on
// length by more than the conflict ratio.
func lengthsConflict(group []entities.PipeDetection) bool {
	if len(group) < 2 {
		return false
	}
	minLen, maxLen := group[0].LengthFT, group[0].LengthFT
	for _, p := range group[1:] {
		minLen = math.Min(minLen, p.LengthFT)
		maxLen = math.Max(maxLen, p.LengthFT)
	}
	if maxLen <= 0 {
		return false
	}
	return (maxLen-minLen)/maxLen > dedupLengthConflict
}

func richest(group []entities.PipeDetection) entities.PipeDetection {
	best := group[0]
	bestScore := best.FieldRichness()
	for _, p := range group[1:] {
		if score := p.FieldRichness(); score > bestScore {
			best = p
			bestScore = score
		}
	}
	return best
}

// mergeUnkeyed groups structure-free detections by discipline, material and
// diameter, merging records whose lengths fall within the tolerance. Two
// views of a segment report near-identical footage; genuinely distinct runs
// of the same pipe spec differ by more.
func mergeUnkeyed(pipes []entities.PipeDetection) ([]entities.PipeDetection, bool) {
	type bucketKey struct {
		discipline entities.Discipline
		material   string
		diameter   int
	}
	buckets := make(map[bucketKey][]entities.PipeDetection)
	var order []bucketKey
	for _, p := range pipes {
		key := bucketKey{p.Discipline, p.NormalizedMaterial(), diameterBucket(p.DiameterIn)}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], p)
	}

	var out []entities.PipeDetection
	for _, key := range order {
		group := buckets[key]
		sort.SliceStable(group, func(a, b int) bool { return group[a].LengthFT < group[b].LengthFT })

		cluster := []entities.PipeDetection{group[0]}
		for _, p := range group[1:] {
			if p.LengthFT-cluster[len(cluster)-1].LengthFT <= dedupLengthTolerance {
				cluster = append(cluster, p)
				continue
			}
			out = append(out, richest(cluster))
			cluster = []entities.PipeDetection{p}
		}
		out = append(out, richest(cluster))
	}
	return out, false
}

// validateMaterials runs Phase B: each distinct material is checked against
// retrieved standards content, optionally after legend decoding of the
// query; failures route through the external resolver. Externally resolved
// materials stay tagged for audit and are never promoted to known.
func (s *ReconciliationService) validateMaterials(ctx context.Context, pipes []entities.PipeDetection, legend map[string]string) ([]entities.ExternalResolution, []entities.UnknownItem) {
	logger := observability.LoggerFromContext(ctx)

	decoded := normalizeLegend(legend)

	var contexts []string
	seen := make(map[string]struct{})
	var materialOrder []string
	for i := range pipes {
		m := pipes[i].NormalizedMaterial()
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		materialOrder = append(materialOrder, m)
	}

	known := make(map[string]bool)
	for _, material := range materialOrder {
		queryTerm := material
		if full, ok := decoded[material]; ok {
			queryTerm = full
		}

		resp, err := s.retriever.Retrieve(ctx, fmt.Sprintf("%s pipe material specifications", queryTerm), 5, retrieval.Options{})
		if err != nil {
			logger.Warn().Err(err).Str("material", material).Msg("Material validation retrieval failed")
			continue
		}

		for _, r := range resp.Results {
			content := strings.ToUpper(r.Record.Content)
			if strings.Contains(content, material) || (queryTerm != material && strings.Contains(content, strings.ToUpper(queryTerm))) {
				known[material] = true
			}
			contexts = append(contexts, r.Record.Content)
		}
	}

	for i := range pipes {
		m := pipes[i].NormalizedMaterial()
		if m == "" {
			continue
		}
		if known[m] {
			pipes[i].MaterialStatus = entities.MaterialStatusKnown
		}
	}

	var toResolve []entities.UnknownItem
	queued := make(map[string]bool)
	for _, item := range s.detector.FindUnknowns(pipes, contexts) {
		if known[item.Value] {
			continue
		}
		toResolve = append(toResolve, item)
		queued[item.Value] = true
	}

	// A material can fail its own strict check yet appear somewhere in the
	// contexts another material retrieved. The blob test alone would leave
	// those with no status at all; they still need resolution.
	for _, item := range s.detector.FindUnknowns(pipes, nil) {
		if known[item.Value] || queued[item.Value] {
			continue
		}
		toResolve = append(toResolve, item)
	}

	if len(toResolve) == 0 {
		return nil, nil
	}
	if s.resolver == nil {
		markUnresolved(pipes, toResolve)
		return nil, toResolve
	}

	resolutions := s.resolver.ResolveAll(ctx, toResolve)

	var externalResolutions []entities.ExternalResolution
	var unresolved []entities.UnknownItem
	for _, item := range toResolve {
		res := resolutions[item.Value]
		if res != nil && res.Success {
			externalResolutions = append(externalResolutions, entities.ExternalResolution{
				Material: item.Value,
				Contexts: res.Contexts,
			})
			setMaterialStatus(pipes, item.Value, entities.MaterialStatusExternallyResolved)
			continue
		}
		unresolved = append(unresolved, item)
	}
	markUnresolved(pipes, unresolved)
	return externalResolutions, unresolved
}

func normalizeLegend(legend map[string]string) map[string]string {
	if len(legend) == 0 {
		return nil
	}
	out := make(map[string]string, len(legend))
	for abbr, full := range legend {
		out[strings.ToUpper(strings.TrimSpace(abbr))] = strings.TrimSpace(full)
	}
	return out
}

func setMaterialStatus(pipes []entities.PipeDetection, material, status string) {
	for i := range pipes {
		if pipes[i].NormalizedMaterial() == material {
			pipes[i].MaterialStatus = status
		}
	}
}

func markUnresolved(pipes []entities.PipeDetection, unresolved []entities.UnknownItem) {
	for _, item := range unresolved {
		setMaterialStatus(pipes, item.Value, entities.MaterialStatusUnresolved)
	}
}

// buildSummary computes counts, footage and volume totals over the
// reconciled pipe set.
func buildSummary(pipes []entities.PipeDetection, dedupDegraded bool) entities.TakeoffSummary {
	summary := entities.TakeoffSummary{
		TotalPipes:    len(pipes),
		DedupDegraded: dedupDegraded,
	}
	for i := range pipes {
		p := &pipes[i]
		switch p.Discipline {
		case entities.DisciplineStorm:
			summary.StormPipes++
			summary.StormLF += p.LengthFT
		case entities.DisciplineSanitary:
			summary.SanitaryPipes++
			summary.SanitaryLF += p.LengthFT
		case entities.DisciplineWater:
			summary.WaterPipes++
			summary.WaterLF += p.LengthFT
		}
		summary.TotalLF += p.LengthFT
	}

	totals := earthwork.CalculateProjectTotals(pipes)
	summary.TotalExcavationCY = totals.TotalExcavationCY
	summary.TotalBeddingCY = totals.TotalBeddingCY
	summary.TotalBackfillCY = totals.TotalBackfillCY
	summary.EstimatedTruckLoads = totals.EstimatedTruckLoads

	summary.StormLF = round2(summary.StormLF)
	summary.SanitaryLF = round2(summary.SanitaryLF)
	summary.WaterLF = round2(summary.WaterLF)
	summary.TotalLF = round2(summary.TotalLF)
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
