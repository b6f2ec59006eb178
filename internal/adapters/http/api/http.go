// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
	"github.com/cohortlab/vigil/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest runs one extract file through the pipeline and reports a receipt.
	Ingest(ctx context.Context, fileText string) (types.IngestReceipt, error)

	// Read operations expose roster data.
	Roster(ctx context.Context, limit int) ([]types.RecordSummary, error)
	Record(ctx context.Context, identity string) (model.PerformanceRecord, error)

	// Weight configuration.
	Weights(ctx context.Context) scoring.Weights
	SetWeights(ctx context.Context, w scoring.Weights) (int, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	ingestHandler  *IngestHandler
	rosterHandler  *RosterHandler
	recordHandler  *RecordHandler
	weightsHandler *WeightsHandler
}

// ServerOptions carries per-route limits sourced from config.
type ServerOptions struct {
	MaxRosterLimit int
	MaxUploadBytes int64
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ServerOptions) *Server {
	if opts.MaxRosterLimit <= 0 {
		opts.MaxRosterLimit = 500
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		ingestHandler:  NewIngestHandler(deps, opts.MaxUploadBytes),
		rosterHandler:  NewRosterHandler(deps, opts.MaxRosterLimit),
		recordHandler:  NewRecordHandler(deps),
		weightsHandler: NewWeightsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/ingest", MetricsMiddleware(s.ingestHandler.HandlePostIngest, "ingest"))
	mux.HandleFunc("/roster", MetricsMiddleware(s.rosterHandler.HandleGetRoster, "roster"))
	mux.HandleFunc("/records/", MetricsMiddleware(s.recordHandler.HandleGetRecord, "record"))
	mux.HandleFunc("/weights", MetricsMiddleware(s.weightsHandler.HandleWeights, "weights"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
