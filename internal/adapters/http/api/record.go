// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cohortlab/vigil/internal/adapters/repository"
)

// RecordHandler handles single-record detail requests.
type RecordHandler struct {
	deps Dependencies
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(deps Dependencies) *RecordHandler {
	return &RecordHandler{deps: deps}
}

// HandleGetRecord handles GET /records/{identity} requests, returning the full
// record including subject entries, core progress, and the historical trail.
func (h *RecordHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_record"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	identity := strings.TrimPrefix(r.URL.Path, "/records/")
	if identity == "" || strings.Contains(identity, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	rec, err := h.deps.Record(r.Context(), identity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
