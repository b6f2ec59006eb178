// Package repository defines the roster store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
)

// MergeStats summarizes the effect of one batch merge.
type MergeStats struct {
	Created int
	Updated int
}

// Store provides read/write access to the roster state.
type Store interface {
	// Merge reconciles a batch of normalized records against the roster.
	// Identity matches are updated in place (all fields except the historical
	// trail, which gets one new entry scored under weights); unknown identities
	// are scored and appended.
	Merge(ctx context.Context, batch []*model.PerformanceRecord, weights scoring.Weights, now time.Time) MergeStats

	// Rescore recomputes every entry's risk score and academic points against
	// the given weights, leaving historical trails untouched. Returns the
	// number of entries rescored.
	Rescore(ctx context.Context, weights scoring.Weights) int

	// List returns copies of all records in insertion order.
	List(ctx context.Context) []model.PerformanceRecord

	// Get returns a copy of the record for identity.
	// Returns ErrNotFound if the identity is unknown.
	Get(ctx context.Context, identity string) (model.PerformanceRecord, error)

	// Count returns the number of records tracked in the roster.
	Count(ctx context.Context) int
}
