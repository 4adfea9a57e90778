package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
)

// semanticSnapshot pairs records with their precomputed embeddings. Queries
// read whichever snapshot is published; rebuilds swap in a new one so a
// half-built index is never visible.
type semanticSnapshot struct {
	records    []entities.StandardRecord
	embeddings [][]float32
}

// SemanticIndex ranks records by cosine similarity against a query embedding
type SemanticIndex struct {
	embedder providers.Embedder
	snapshot atomic.Pointer[semanticSnapshot]
}

// NewSemanticIndex creates an unbuilt semantic index
func NewSemanticIndex(embedder providers.Embedder) *SemanticIndex {
	return &SemanticIndex{embedder: embedder}
}

// Build embeds the corpus and atomically publishes the new snapshot.
// Concurrent queries keep serving the previous snapshot until publish.
func (s *SemanticIndex) Build(ctx context.Context, records []entities.StandardRecord) error {
	if len(records) == 0 {
		s.snapshot.Store(&semanticSnapshot{})
		return nil
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Content
	}
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}
	if len(embeddings) != len(records) {
		return fmt.Errorf("embedding count mismatch: %d records, %d vectors", len(records), len(embeddings))
	}
	s.snapshot.Store(&semanticSnapshot{records: records, embeddings: embeddings})
	return nil
}

// Ready reports whether a snapshot has been published
func (s *SemanticIndex) Ready() bool {
	snap := s.snapshot.Load()
	return snap != nil && len(snap.records) > 0
}

// TopK embeds the query and returns up to k records by cosine similarity,
// restricted to records passing the discipline/category filters.
func (s *SemanticIndex) TopK(ctx context.Context, query string, k int, discipline entities.Discipline, category entities.Category) ([]entities.RetrievedResult, error) {
	snap := s.snapshot.Load()
	if snap == nil || len(snap.records) == 0 || k <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i, r := range snap.records {
		if !knowledge.MatchesDiscipline(r.Discipline, discipline) {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		sim := cosineSimilarity(queryVec, snap.embeddings[i])
		if sim <= 0 {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: sim})
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
			Record:          snap.records[c.idx],
			Score:           c.score,
			RetrievalMethod: entities.RetrievalMethodSemantic,
		})
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
