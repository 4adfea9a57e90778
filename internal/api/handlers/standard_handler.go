package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/estimaihq/takeoff-backend/internal/adapters/search"
	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	apperrors "github.com/estimaihq/takeoff-backend/pkg/errors"
)

const defaultSearchLimit = 10

// StandardSearcher defines the search operations used by the handler.
type StandardSearcher interface {
	Search(ctx context.Context, params search.StandardSearchParams) ([]entities.StandardRecord, error)
}

// StandardGetter defines the single-record lookup used by the handler.
type StandardGetter interface {
	GetByID(ctx context.Context, id int) (*entities.StandardRecord, error)
}

// StandardHandler handles construction-standard lookup requests
type StandardHandler struct {
	searcher StandardSearcher
	getter   StandardGetter
}

// NewStandardHandler creates a new standard handler. The getter may be nil
// when no record store is configured; the lookup endpoint then answers 503.
func NewStandardHandler(searcher StandardSearcher, getter StandardGetter) *StandardHandler {
	return &StandardHandler{searcher: searcher, getter: getter}
}

// SearchStandards handles GET /api/standards/search
func (h *StandardHandler) SearchStandards(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	params := search.StandardSearchParams{
		Query:      query,
		Discipline: entities.Discipline(r.URL.Query().Get("discipline")),
		Category:   entities.Category(r.URL.Query().Get("category")),
		Limit:      defaultSearchLimit,
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "parameter 'limit' must be a positive integer")
			return
		}
		params.Limit = limit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondWithError(w, http.StatusBadRequest, "parameter 'offset' must be a non-negative integer")
			return
		}
		params.Offset = offset
	}

	records, err := h.searcher.Search(r.Context(), params)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to search standards")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"count":   len(records),
		"results": records,
	})
}

// GetStandard handles GET /api/standards/{id}
func (h *StandardHandler) GetStandard(w http.ResponseWriter, r *http.Request) {
	if h.getter == nil {
		respondWithError(w, http.StatusServiceUnavailable, "standards store is not configured")
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "path parameter 'id' must be a positive integer")
		return
	}

	record, err := h.getter.GetByID(r.Context(), id)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeNotFound {
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to get standard record")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
