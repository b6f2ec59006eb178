package ingest

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
	"github.com/cohortlab/vigil/pkg/logger"
	"github.com/cohortlab/vigil/pkg/metrics"
)

// Positional columns of an extract row.
const (
	colIdentity = iota
	colDisplayName
	colCohort
	colAttendance
	colMissedSessions
	colSubjects
	colCoreProgress
)

// minRequiredFields is the threshold below which a row is skipped outright.
const minRequiredFields = 2

// Per-field coercion defaults.
const (
	defaultAttendanceRate = 100.0
	defaultMissedSessions = 0.0
)

// laterCohortTokens mark a row as belonging to the later cohort when any of
// them appears in the lower-cased cohort column.
var laterCohortTokens = []string{"dp2", "y13", "year 13", "grade 13"}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLogger sets a custom logger for the normalizer.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithClock sets the timestamp source used to stamp records.
func WithClock(clock func() time.Time) Option {
	return func(n *Normalizer) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// Normalizer maps raw extract text to canonical, fully-typed records.
//
// Rows degrade gracefully: structural defects skip the row, embedded-column
// decode defects substitute the column default and keep the row, and numeric
// coercion defects default silently per field. A whole batch is never aborted
// because of one bad row.
type Normalizer struct {
	logger logger.Logger
	clock  func() time.Time
}

// New constructs a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Rows parses fileText into performance records, order preserved. The header
// row is skipped, as are blank rows and rows with fewer than two fields, so a
// degenerate file yields an empty slice.
//
// Records come back with AcademicPoints computed and RiskScore zero; the
// scoring pass belongs to the caller, which owns the weight configuration.
func (n *Normalizer) Rows(ctx context.Context, fileText string) []*model.PerformanceRecord {
	if n.logger == nil {
		n.logger = logger.Get().Named("ingest")
	}

	lines := strings.Split(strings.ReplaceAll(fileText, "\r\n", "\n"), "\n")
	records := make([]*model.PerformanceRecord, 0, len(lines))

	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := ParseRow(line)
		if len(fields) < minRequiredFields {
			metrics.RecordRowSkipped()
			continue
		}
		records = append(records, n.normalizeRow(ctx, i, fields))
	}

	metrics.RecordRowsParsed(len(records))
	return records
}

// normalizeRow builds one canonical record from parsed fields.
func (n *Normalizer) normalizeRow(ctx context.Context, rowIndex int, fields []string) *model.PerformanceRecord {
	field := func(col int) string {
		if col < len(fields) {
			return fields[col]
		}
		return ""
	}

	displayName := field(colDisplayName)
	if displayName == "" {
		displayName = model.UnknownDisplayName
	}

	identity := field(colIdentity)
	if identity == "" {
		identity = synthesizeIdentity()
	}

	now := n.clock()
	rec := &model.PerformanceRecord{
		Identity:       identity,
		DisplayName:    displayName,
		Cohort:         parseCohort(field(colCohort)),
		AttendanceRate: coerceNumber(field(colAttendance), defaultAttendanceRate),
		MissedSessions: int(coerceNumber(field(colMissedSessions), defaultMissedSessions)),
		SubjectEntries: n.decodeSubjects(ctx, rowIndex, displayName, field(colSubjects)),
		CoreProgress:   n.decodeCoreProgress(ctx, rowIndex, displayName, field(colCoreProgress)),
		ProcessedAt:    now,
		HistoricalScores: []model.ScorePoint{
			{Timestamp: now, Score: 0},
		},
	}
	rec.AcademicPoints = scoring.AcademicPoints(rec)
	return rec
}

// decodeSubjects decodes the embedded subject-entries column. A decode failure
// is logged and replaced by an empty list; the row is still accepted.
func (n *Normalizer) decodeSubjects(ctx context.Context, rowIndex int, displayName, raw string) []model.SubjectEntry {
	raw = unwrapEmbedded(raw)
	if raw == "" || raw == `""` {
		return []model.SubjectEntry{}
	}
	var entries []model.SubjectEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		metrics.RecordDecodeFailure()
		n.logger.Warn(ctx, "malformed subject entries column; substituting empty list",
			logger.Int("row", rowIndex),
			logger.String("displayName", displayName),
			logger.Error(err),
		)
		return []model.SubjectEntry{}
	}
	if entries == nil {
		// Decoded to JSON null or a non-array shape.
		return []model.SubjectEntry{}
	}
	return entries
}

// decodeCoreProgress decodes the embedded core-progress column. A decode
// failure is logged and replaced by the baseline record; the row is still
// accepted. Keys absent from the JSON keep their baseline values.
func (n *Normalizer) decodeCoreProgress(ctx context.Context, rowIndex int, displayName, raw string) model.CoreProgress {
	raw = unwrapEmbedded(raw)
	if raw == "" || raw == `""` {
		return model.BaselineCoreProgress()
	}
	cp := model.BaselineCoreProgress()
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		metrics.RecordDecodeFailure()
		n.logger.Warn(ctx, "malformed core progress column; substituting baseline",
			logger.Int("row", rowIndex),
			logger.String("displayName", displayName),
			logger.Error(err),
		)
		return model.BaselineCoreProgress()
	}
	return cp
}

// coerceNumber strips every non-digit/non-dot rune and parses the remainder,
// falling back to the supplied default. Coercion defects are silent per field.
func coerceNumber(raw string, fallback float64) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return fallback
	}
	return v
}

// parseCohort assigns the later cohort on an indicator-token match and the
// earlier cohort otherwise, absent input included.
func parseCohort(raw string) model.Cohort {
	lowered := strings.ToLower(raw)
	for _, token := range laterCohortTokens {
		if strings.Contains(lowered, token) {
			return model.CohortDP2
		}
	}
	return model.CohortDP1
}

// synthesizeIdentity mints an identity for rows arriving without one.
func synthesizeIdentity() string {
	return "rec-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
