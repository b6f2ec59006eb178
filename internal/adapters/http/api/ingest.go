// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/cohortlab/vigil/internal/app"
)

// IngestHandler handles extract upload requests.
type IngestHandler struct {
	deps     Dependencies
	maxBytes int64
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(deps Dependencies, maxBytes int64) *IngestHandler {
	return &IngestHandler{deps: deps, maxBytes: maxBytes}
}

// HandlePostIngest handles POST /ingest requests. The request body is the raw
// extract text; the response is the ingestion receipt. A receipt with
// parsed == 0 means the file held no usable data rows.
func (h *IngestHandler) HandlePostIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_ingest"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", Wrap(op, err))
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	receipt, err := h.deps.Ingest(r.Context(), string(body))
	if err != nil {
		if errors.Is(err, app.ErrBackpressure) {
			writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
