// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// RosterHandler handles roster listing requests.
type RosterHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps Dependencies, maxLimit int) *RosterHandler {
	return &RosterHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetRoster handles GET /roster?limit=N requests. Omitting limit returns
// the whole roster up to the configured maximum.
func (h *RosterHandler) HandleGetRoster(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_roster"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	summaries, err := h.deps.Roster(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
