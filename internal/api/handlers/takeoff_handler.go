package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/estimaihq/takeoff-backend/internal/application/services"
	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

const maxPipesPerRequest = 5000

// TakeoffService defines the reconciliation operations used by the handler.
type TakeoffService interface {
	Reconcile(ctx context.Context, input services.ReconcileInput) (*entities.TakeoffResult, error)
}

// TakeoffHandler handles takeoff reconciliation requests
type TakeoffHandler struct {
	service TakeoffService
}

// NewTakeoffHandler creates a new takeoff handler
func NewTakeoffHandler(service TakeoffService) *TakeoffHandler {
	return &TakeoffHandler{service: service}
}

// Reconcile handles POST /api/takeoff/reconcile
func (h *TakeoffHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var input services.ReconcileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if len(input.Pipes) > maxPipesPerRequest {
		respondWithError(w, http.StatusBadRequest, "too many pipe detections in a single request")
		return
	}

	for i := range input.Pipes {
		if err := input.Pipes[i].Validate(); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.service.Reconcile(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Int("pipes", len(input.Pipes)).Msg("takeoff reconciliation failed")
		respondWithError(w, http.StatusInternalServerError, "failed to reconcile takeoff")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
