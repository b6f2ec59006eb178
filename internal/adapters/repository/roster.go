package repository

import (
	"context"
	"sync"
	"time"

	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
	"github.com/cohortlab/vigil/pkg/metrics"
)

// defaultHistoryWindow caps the historical-score trail per record. The cap
// applies after each merge appends, so the trail always holds the most recent
// entries inclusive of the newest append.
const defaultHistoryWindow = 10

// Roster implements Store with an identity-keyed in-memory map plus an
// insertion-order index for stable listing.
//
// Writes are expected to come from a single logical owner (the batch applier);
// the mutex exists so concurrent readers on the HTTP surface never observe a
// partially applied merge.
type Roster struct {
	mu            sync.RWMutex
	records       map[string]*model.PerformanceRecord
	order         []string
	historyWindow int
}

// NewRoster creates an empty roster.
func NewRoster(ctx context.Context, opts ...Option) *Roster {
	r := &Roster{
		records:       make(map[string]*model.PerformanceRecord),
		historyWindow: defaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Merge reconciles a batch against the roster. Within-batch duplicate
// identities resolve last-write-wins in batch order because records are
// applied sequentially.
func (r *Roster) Merge(ctx context.Context, batch []*model.PerformanceRecord, weights scoring.Weights, now time.Time) MergeStats {
	start := time.Now()
	defer func() {
		metrics.RecordMergeLatency(float64(time.Since(start).Milliseconds()))
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	var stats MergeStats
	for _, incoming := range batch {
		if incoming == nil {
			continue
		}
		if existing, ok := r.records[incoming.Identity]; ok {
			r.applyUpdate(existing, incoming, weights, now)
			stats.Updated++
			continue
		}
		rec := incoming.Clone()
		rec.RiskScore = scoring.RiskScore(&rec, weights)
		rec.AcademicPoints = scoring.AcademicPoints(&rec)
		r.records[rec.Identity] = &rec
		r.order = append(r.order, rec.Identity)
		stats.Created++
	}

	metrics.RecordRecordsCreated(stats.Created)
	metrics.RecordRecordsUpdated(stats.Updated)
	metrics.UpdateRosterSize(len(r.records))
	return stats
}

// applyUpdate replaces every field of existing with incoming's fields except
// the historical trail, which is extended with the freshly computed score and
// trimmed to the retention window.
func (r *Roster) applyUpdate(existing, incoming *model.PerformanceRecord, weights scoring.Weights, now time.Time) {
	trail := existing.HistoricalScores

	updated := incoming.Clone()
	updated.Identity = existing.Identity // identity is immutable once created
	updated.RiskScore = scoring.RiskScore(&updated, weights)
	updated.AcademicPoints = scoring.AcademicPoints(&updated)

	trail = append(trail, model.ScorePoint{Timestamp: now, Score: updated.RiskScore})
	if excess := len(trail) - r.historyWindow; excess > 0 {
		trail = append([]model.ScorePoint(nil), trail[excess:]...)
	}
	updated.HistoricalScores = trail

	*existing = updated
}

// Rescore recomputes the derived indicators for every entry in place.
// Historical trails are only extended by merges, never by rescoring.
func (r *Roster) Rescore(ctx context.Context, weights scoring.Weights) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		rec.RiskScore = scoring.RiskScore(rec, weights)
		rec.AcademicPoints = scoring.AcademicPoints(rec)
	}
	metrics.RecordRescoreRun()
	return len(r.records)
}

// List returns copies of all records in insertion order.
func (r *Roster) List(ctx context.Context) []model.PerformanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.PerformanceRecord, 0, len(r.order))
	for _, id := range r.order {
		if rec, ok := r.records[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Get returns a copy of the record for identity.
func (r *Roster) Get(ctx context.Context, identity string) (model.PerformanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[identity]
	if !ok {
		return model.PerformanceRecord{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// Count returns the number of records tracked in the roster.
func (r *Roster) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
