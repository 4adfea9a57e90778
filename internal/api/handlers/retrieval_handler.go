package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/retrieval"
)

const (
	defaultRetrievalK  = 5
	maxRetrievalK      = 50
	defaultNumVariants = 3
)

// RetrievalHandler exposes the hybrid retriever for diagnostics and tooling
type RetrievalHandler struct {
	hybrid     *retrieval.HybridRetriever
	multiQuery *retrieval.MultiQueryRetriever
}

// NewRetrievalHandler creates a new retrieval handler
func NewRetrievalHandler(hybrid *retrieval.HybridRetriever, multiQuery *retrieval.MultiQueryRetriever) *RetrievalHandler {
	return &RetrievalHandler{hybrid: hybrid, multiQuery: multiQuery}
}

type retrievalResponse struct {
	Query    string                     `json:"query"`
	Mode     string                     `json:"mode"`
	Degraded bool                       `json:"degraded"`
	Results  []entities.RetrievedResult `json:"results"`
}

// Query handles GET /api/retrieval/query
func (h *RetrievalHandler) Query(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	k := defaultRetrievalK
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "parameter 'k' must be a positive integer")
			return
		}
		if parsed > maxRetrievalK {
			parsed = maxRetrievalK
		}
		k = parsed
	}

	opts := retrieval.Options{
		Discipline: entities.Discipline(r.URL.Query().Get("discipline")),
		Category:   entities.Category(r.URL.Query().Get("category")),
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "hybrid"
	}

	var (
		resp *retrieval.Response
		err  error
	)

	switch mode {
	case "hybrid":
		resp, err = h.hybrid.Retrieve(r.Context(), query, k, opts)
	case "multiquery":
		if h.multiQuery == nil {
			respondWithError(w, http.StatusServiceUnavailable, "multi-query retrieval is not configured")
			return
		}
		resp, err = h.multiQuery.RetrieveExpanded(r.Context(), query, k, opts, defaultNumVariants)
	default:
		respondWithError(w, http.StatusBadRequest, "mode must be 'hybrid' or 'multiquery'")
		return
	}

	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}

	respondWithJSON(w, http.StatusOK, retrievalResponse{
		Query:    query,
		Mode:     mode,
		Degraded: resp.Degraded,
		Results:  resp.Results,
	})
}
