package retrieval

import (
	"math"
	"sort"
	"strings"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
)

// BM25 Okapi parameters
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25Index is a keyword-ranking index over the standards corpus. Immutable
// after construction; rebuilds publish a fresh index.
type BM25Index struct {
	records   []entities.StandardRecord
	docTokens [][]string
	docFreq   map[string]int
	docLen    []int
	avgDocLen float64
}

// Tokenize lowercases and splits on whitespace
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// NewBM25Index builds a keyword index over the given records
func NewBM25Index(records []entities.StandardRecord) *BM25Index {
	idx := &BM25Index{
		records:   records,
		docTokens: make([][]string, len(records)),
		docFreq:   make(map[string]int),
		docLen:    make([]int, len(records)),
	}

	totalLen := 0
	for i, r := range records {
		tokens := Tokenize(r.Content)
		idx.docTokens[i] = tokens
		idx.docLen[i] = len(tokens)
		totalLen += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				idx.docFreq[tok]++
			}
		}
	}
	if len(records) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(records))
	}
	return idx
}

// idf uses the robust BM25+ style formulation that never goes negative for
// terms present in most documents.
func (idx *BM25Index) idf(term string) float64 {
	df := idx.docFreq[term]
	n := len(idx.records)
	return math.Log((float64(n-df)+0.5)/(float64(df)+0.5) + 1)
}

// score computes the BM25 score of document i for the query tokens
func (idx *BM25Index) score(i int, queryTokens []string) float64 {
	tf := make(map[string]int)
	for _, tok := range idx.docTokens[i] {
		tf[tok]++
	}

	var score float64
	lenNorm := 1 - bm25B + bm25B*float64(idx.docLen[i])/idx.avgDocLen
	for _, q := range queryTokens {
		f := float64(tf[q])
		if f == 0 {
			continue
		}
		score += idx.idf(q) * f * (bm25K1 + 1) / (f + bm25K1*lenNorm)
	}
	return score
}

// TopK returns up to k records scoring above zero for the query, restricted
// to records passing the discipline/category filters, best first. An empty
// index returns nil.
func (idx *BM25Index) TopK(query string, k int, discipline entities.Discipline, category entities.Category) []entities.RetrievedResult {
	if len(idx.records) == 0 || k <= 0 {
		return nil
	}
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i, r := range idx.records {
		if !knowledge.MatchesDiscipline(r.Discipline, discipline) {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		if s := idx.score(i, queryTokens); s > 0 {
			candidates = append(candidates, scored{idx: i, score: s})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]entities.RetrievedResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, entities.RetrievedResult{
			Record:          idx.records[c.idx],
			Score:           c.score,
			RetrievalMethod: entities.RetrievalMethodKeyword,
		})
	}
	return results
}
