// Package types contains read-model shapes shared between the service and the
// HTTP surface.
package types

// IngestReceipt summarizes one ingestion call for the caller.
// Parsed of zero means nothing usable was found in the file.
type IngestReceipt struct {
	Parsed    int  `json:"parsed"`
	Created   int  `json:"created"`
	Updated   int  `json:"updated"`
	Duplicate bool `json:"duplicate"`
}

// RecordSummary is the roster-listing row consumed by display collaborators.
type RecordSummary struct {
	Identity       string  `json:"identity"`
	DisplayName    string  `json:"display_name"`
	Cohort         string  `json:"cohort"`
	AttendanceRate float64 `json:"attendance_rate"`
	MissedSessions int     `json:"missed_sessions"`
	RiskScore      int     `json:"risk_score"`
	AcademicPoints int     `json:"academic_points"`
}
