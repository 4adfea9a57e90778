package retrieval

import (
	"sort"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

// RRFConstant is the damping constant K in the 1/(K+rank) fusion formula
const RRFConstant = 60

// fusedEntry accumulates RRF contributions for one document across lists
type fusedEntry struct {
	result      entities.RetrievedResult
	fusedScore  float64
	methods     map[entities.RetrievalMethod]struct{}
	appearances int
	rankSum     int
	firstSeen   int
}

// FuseRRF merges ranked result lists with reciprocal rank fusion: each
// appearance at 1-based rank r contributes 1/(60+r), contributions sum
// across lists, and documents sort by total descending. Ties keep the
// stable order of first appearance across the input lists; no further
// tie-break is applied. The per-document method set, appearance count, and
// average rank are recorded on the surviving results.
func FuseRRF(lists [][]entities.RetrievedResult, k int) []entities.RetrievedResult {
	entries := make(map[int]*fusedEntry)
	order := 0

	for _, list := range lists {
		for rank, res := range list {
			id := res.Record.ID
			e, ok := entries[id]
			if !ok {
				e = &fusedEntry{
					result:    res,
					methods:   make(map[entities.RetrievalMethod]struct{}),
					firstSeen: order,
				}
				entries[id] = e
				order++
			}
			e.fusedScore += 1.0 / float64(RRFConstant+rank+1)
			e.appearances++
			e.rankSum += rank + 1
			if res.RetrievalMethod != "" {
				e.methods[res.RetrievalMethod] = struct{}{}
			}
		}
	}

	fused := make([]*fusedEntry, 0, len(entries))
	for _, e := range entries {
		fused = append(fused, e)
	}
	sort.Slice(fused, func(a, b int) bool {
		if fused[a].fusedScore != fused[b].fusedScore {
			return fused[a].fusedScore > fused[b].fusedScore
		}
		return fused[a].firstSeen < fused[b].firstSeen
	})
	if k > 0 && len(fused) > k {
		fused = fused[:k]
	}

	results := make([]entities.RetrievedResult, 0, len(fused))
	for _, e := range fused {
		r := e.result
		r.FusedScore = e.fusedScore
		r.AppearedInQueries = e.appearances
		r.AvgRank = float64(e.rankSum) / float64(e.appearances)
		r.RetrievalMethods = sortedMethods(e.methods)
		results = append(results, r)
	}
	return results
}

func sortedMethods(set map[entities.RetrievalMethod]struct{}) []entities.RetrievalMethod {
	if len(set) == 0 {
		return nil
	}
	methods := make([]entities.RetrievalMethod, 0, len(set))
	for m := range set {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(a, b int) bool { return methods[a] < methods[b] })
	return methods
}
