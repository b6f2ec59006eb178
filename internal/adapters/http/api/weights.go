// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/cohortlab/vigil/internal/domain/scoring"
)

// WeightsHandler handles weight-configuration requests.
type WeightsHandler struct {
	deps Dependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps Dependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

type rescoreResponse struct {
	Rescored int             `json:"rescored"`
	Weights  scoring.Weights `json:"weights"`
}

// HandleWeights handles GET and PUT /weights requests. PUT swaps the active
// configuration and triggers a synchronous rescore pass over the roster.
func (h *WeightsHandler) HandleWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.weights"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Weights(r.Context()))
	case http.MethodPut:
		var weights scoring.Weights
		if err := json.NewDecoder(r.Body).Decode(&weights); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		rescored, err := h.deps.SetWeights(r.Context(), weights)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, rescoreResponse{Rescored: rescored, Weights: weights})
	default:
		http.NotFound(w, r)
	}
}
