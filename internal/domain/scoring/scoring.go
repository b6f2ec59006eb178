// Package scoring computes the two derived indicators for a performance record:
// a weight-configurable risk score and a weight-independent academic-points
// aggregate.
//
// Both functions are pure and total over well-formed records produced by the
// normalizer: identical inputs always yield identical outputs, with no hidden
// state, I/O, or randomness.
package scoring

import (
	"math"

	"github.com/cohortlab/vigil/internal/domain/model"
)

// Risk-score contribution constants.
const (
	attendanceBaseline   = 95.0
	attendanceFactor     = 5.0
	lowGradeThreshold    = 4.0
	lowGradeFactor       = 15.0
	trendPenalty         = 10.0
	formativeRatioMin    = 0.4
	formativePenalty     = 20.0
	missingWorkPenalty   = 12.0
	eeAtRiskPenalty      = 35.0
	tokAtRiskPenalty     = 30.0
	serviceBehindPenalty = 25.0

	maxRiskScore = 100
)

// Academic-points constants.
const (
	minQualifyingMark = 1.0
	maxQualifyingMark = 7.0
	maxAcademicPoints = 45
)

// Weights is the named multiplier set applied to each risk contribution.
// Values are typically in [0,1] but are honored as-is when out of range.
type Weights struct {
	Attendance    float64 `json:"attendance" koanf:"attendance"`
	LowGrade      float64 `json:"low_grade" koanf:"low_grade"`
	CoreRisk      float64 `json:"core_risk" koanf:"core_risk"`
	Trend         float64 `json:"trend" koanf:"trend"`
	FormativeRisk float64 `json:"formative_risk" koanf:"formative_risk"`
	MissingWork   float64 `json:"missing_work" koanf:"missing_work"`
}

// DefaultWeights returns the standard weight configuration.
func DefaultWeights() Weights {
	return Weights{
		Attendance:    0.25,
		LowGrade:      0.35,
		CoreRisk:      0.15,
		Trend:         0.1,
		FormativeRisk: 0.1,
		MissingWork:   0.05,
	}
}

// RiskScore computes the bounded risk indicator for a record under the given
// weights. Contributions are independently additive; the accumulated value is
// clamped to [0,100] and rounded to the nearest integer.
func RiskScore(rec *model.PerformanceRecord, w Weights) int {
	var score float64

	// Attendance deficit below the baseline.
	if deficit := attendanceBaseline - rec.AttendanceRate; deficit > 0 {
		score += deficit * attendanceFactor * w.Attendance
	}

	missing := 0
	for i := range rec.SubjectEntries {
		se := &rec.SubjectEntries[i]

		if se.CurrentMark > 0 && se.CurrentMark < lowGradeThreshold {
			score += (lowGradeThreshold - se.CurrentMark) * lowGradeFactor * w.LowGrade
		}
		if se.Trend == model.TrendDown {
			score += trendPenalty * w.Trend
		}
		for j := range se.TaskEntries {
			te := &se.TaskEntries[j]
			if te.Category == model.TaskCategoryFormativeIA && te.MaxScore > 0 &&
				te.Score/te.MaxScore < formativeRatioMin {
				score += formativePenalty * w.FormativeRisk
			}
			if te.Status == model.TaskStatusMissing {
				missing++
			}
		}
	}
	score += float64(missing) * missingWorkPenalty * w.MissingWork

	// Core-progress penalties, each independent.
	if rec.CoreProgress.ExtendedEssay == model.CoreStatusAtRisk {
		score += eeAtRiskPenalty * w.CoreRisk
	}
	if rec.CoreProgress.TheoryOfKnowledge == model.CoreStatusAtRisk {
		score += tokAtRiskPenalty * w.CoreRisk
	}
	if rec.CoreProgress.Service == model.CoreStatusBehind {
		score += serviceBehindPenalty * w.CoreRisk
	}

	score = math.Max(0, math.Min(maxRiskScore, score))
	return int(math.Round(score))
}

// AcademicPoints computes the capped academic aggregate: qualifying subject
// marks (1..7 inclusive; out-of-range marks contribute zero) plus the core
// bonus points, clamped to 45. The result never depends on Weights.
func AcademicPoints(rec *model.PerformanceRecord) int {
	total := 0.0
	for i := range rec.SubjectEntries {
		mark := rec.SubjectEntries[i].CurrentMark
		if mark >= minQualifyingMark && mark <= maxQualifyingMark {
			total += mark
		}
	}
	total += float64(rec.CoreProgress.CorePoints)
	if total > maxAcademicPoints {
		total = maxAcademicPoints
	}
	if total < 0 {
		total = 0
	}
	return int(math.Round(total))
}
