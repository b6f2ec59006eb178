// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// UnknownDisplayName is assigned when an extract row carries no name.
const UnknownDisplayName = "Unknown Student"

// Cohort is one of the two closed year-group categories a record belongs to.
type Cohort string

// Cohort values. DP1 is the earlier cohort and the default for unmatched input.
const (
	CohortDP1 Cohort = "DP1"
	CohortDP2 Cohort = "DP2"
)

// Trend describes the direction of a subject's recent marks.
type Trend string

// Trend values. Unrecognized input maps to TrendStable.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ParseTrend maps free-text trend input to a closed Trend value.
func ParseTrend(s string) Trend {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "rising", "improving":
		return TrendUp
	case "down", "falling", "declining":
		return TrendDown
	default:
		return TrendStable
	}
}

// UnmarshalJSON normalizes trend values at the decode boundary.
func (t *Trend) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseTrend(s)
	return nil
}

// TaskCategory classifies an assessed task.
type TaskCategory string

// TaskCategory values. Unrecognized input maps to TaskCategoryUnknown.
const (
	TaskCategoryFormativeIA TaskCategory = "formative-ia"
	TaskCategorySummative   TaskCategory = "summative"
	TaskCategoryCore        TaskCategory = "core"
	TaskCategoryUnknown     TaskCategory = "unknown"
)

// ParseTaskCategory maps free-text category input to a closed TaskCategory value.
func ParseTaskCategory(s string) TaskCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ia", "formative", "formative-ia", "internal assessment":
		return TaskCategoryFormativeIA
	case "summative":
		return TaskCategorySummative
	case "core":
		return TaskCategoryCore
	default:
		return TaskCategoryUnknown
	}
}

// UnmarshalJSON normalizes category values at the decode boundary.
func (c *TaskCategory) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = ParseTaskCategory(s)
	return nil
}

// TaskStatus describes the submission state of a task.
type TaskStatus string

// TaskStatus values. Unrecognized input maps to TaskStatusPending.
const (
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusMissing   TaskStatus = "missing"
	TaskStatusLate      TaskStatus = "late"
	TaskStatusPending   TaskStatus = "pending"
)

// ParseTaskStatus maps free-text status input to a closed TaskStatus value.
func ParseTaskStatus(s string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "submitted", "complete", "done":
		return TaskStatusSubmitted
	case "missing":
		return TaskStatusMissing
	case "late":
		return TaskStatusLate
	default:
		return TaskStatusPending
	}
}

// UnmarshalJSON normalizes status values at the decode boundary.
func (s *TaskStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseTaskStatus(raw)
	return nil
}

// CoreStatus describes progress on one of the three core components.
type CoreStatus string

// CoreStatus values. Unrecognized input maps to CoreStatusUnknown, which no
// scoring rule penalizes.
const (
	CoreStatusNotStarted CoreStatus = "not started"
	CoreStatusInProgress CoreStatus = "in progress"
	CoreStatusAtRisk     CoreStatus = "at risk"
	CoreStatusBehind     CoreStatus = "behind"
	CoreStatusOnTrack    CoreStatus = "on track"
	CoreStatusCompleted  CoreStatus = "completed"
	CoreStatusUnknown    CoreStatus = "unknown"
)

// ParseCoreStatus maps free-text core-component status input to a closed value.
func ParseCoreStatus(s string) CoreStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not started":
		return CoreStatusNotStarted
	case "in progress":
		return CoreStatusInProgress
	case "at risk":
		return CoreStatusAtRisk
	case "behind":
		return CoreStatusBehind
	case "on track":
		return CoreStatusOnTrack
	case "completed", "complete":
		return CoreStatusCompleted
	default:
		return CoreStatusUnknown
	}
}

// UnmarshalJSON normalizes core status values at the decode boundary.
func (c *CoreStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = ParseCoreStatus(s)
	return nil
}

// TaskEntry is a single assessed task inside a subject.
// JSON tags match the ingestion wire shape of the embedded subject column.
type TaskEntry struct {
	Label    string       `json:"name"`
	Score    float64      `json:"score"`
	MaxScore float64      `json:"maxScore"`
	Category TaskCategory `json:"category"`
	Status   TaskStatus   `json:"status"`
}

// SubjectEntry is a per-subject performance snapshot.
type SubjectEntry struct {
	Label         string      `json:"subject"`
	Level         string      `json:"level"`
	CurrentMark   float64     `json:"currentMark"`
	PredictedMark float64     `json:"predictedMark"`
	Trend         Trend       `json:"trend"`
	TaskEntries   []TaskEntry `json:"assignments"`
}

// CoreProgress tracks the three fixed non-subject components plus bonus points.
type CoreProgress struct {
	ExtendedEssay     CoreStatus `json:"ee"`
	TheoryOfKnowledge CoreStatus `json:"tok"`
	Service           CoreStatus `json:"cas"`
	CorePoints        int        `json:"points"`
}

// BaselineCoreProgress is the "not started / on track" default substituted when
// the embedded core column is absent or malformed.
func BaselineCoreProgress() CoreProgress {
	return CoreProgress{
		ExtendedEssay:     CoreStatusNotStarted,
		TheoryOfKnowledge: CoreStatusNotStarted,
		Service:           CoreStatusOnTrack,
		CorePoints:        0,
	}
}

// ScorePoint is one entry in a record's historical risk-score trail.
type ScorePoint struct {
	Timestamp time.Time `json:"ts"`
	Score     int       `json:"score"`
}

// PerformanceRecord is the canonical roster entity produced by normalization.
//
// RiskScore and AcademicPoints are derived values: RiskScore is a function of
// the other fields plus the active weight configuration, AcademicPoints of
// SubjectEntries and CoreProgress alone. Neither is authoritative state.
type PerformanceRecord struct {
	Identity         string         `json:"identity"`
	DisplayName      string         `json:"display_name"`
	Cohort           Cohort         `json:"cohort"`
	AttendanceRate   float64        `json:"attendance_rate"`
	MissedSessions   int            `json:"missed_sessions"`
	SubjectEntries   []SubjectEntry `json:"subject_entries"`
	CoreProgress     CoreProgress   `json:"core_progress"`
	RiskScore        int            `json:"risk_score"`
	AcademicPoints   int            `json:"academic_points"`
	HistoricalScores []ScorePoint   `json:"historical_scores"`
	ProcessedAt      time.Time      `json:"processed_at"`
}

// Clone returns a deep copy so readers never alias roster-owned slices.
func (r *PerformanceRecord) Clone() PerformanceRecord {
	out := *r
	if r.SubjectEntries != nil {
		out.SubjectEntries = make([]SubjectEntry, len(r.SubjectEntries))
		for i, se := range r.SubjectEntries {
			out.SubjectEntries[i] = se
			if se.TaskEntries != nil {
				out.SubjectEntries[i].TaskEntries = append([]TaskEntry(nil), se.TaskEntries...)
			}
		}
	}
	if r.HistoricalScores != nil {
		out.HistoricalScores = append([]ScorePoint(nil), r.HistoricalScores...)
	}
	return out
}
