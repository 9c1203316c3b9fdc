// Package core implements the workout CSV import pipeline.
// This package has no HTTP dependencies and can be driven by any frontend.
package core

import (
	"context"
	"time"

	"github.com/stridelog/importer/internal/schema"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Judgment is the per-lap plausibility classification. It is a closed enum
// internally; display strings are applied only at the serialization boundary.
type Judgment int

const (
	JudgmentValid Judgment = iota
	JudgmentWarning
	JudgmentInvalid
)

// String returns the wire form used in JSON output.
func (j Judgment) String() string {
	switch j {
	case JudgmentValid:
		return "valid"
	case JudgmentWarning:
		return "warning"
	case JudgmentInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the judgment as its wire string.
func (j Judgment) MarshalJSON() ([]byte, error) {
	return []byte(`"` + j.String() + `"`), nil
}

// LocalizedLabel returns the display label for a language tag. Only the
// serialization boundary should call this; the engine never compares labels.
func (j Judgment) LocalizedLabel(lang string) string {
	if lang == "ja" {
		switch j {
		case JudgmentValid:
			return "有効"
		case JudgmentWarning:
			return "警告"
		case JudgmentInvalid:
			return "無効"
		}
	}
	return j.String()
}

// ParsedRow is one decoded CSV line with its 1-indexed source line number.
type ParsedRow struct {
	Line   int
	Fields []string
}

// WorkoutRecord is the persistable result of a valid row.
type WorkoutRecord struct {
	Date           time.Time `json:"date"`
	ActivityType   string    `json:"activity_type,omitempty"`
	DistanceMeters float64   `json:"distance_meters"`
	TimesSeconds   []int     `json:"times_seconds"`
	AvgPaceSeconds int       `json:"avg_pace_seconds"`
	AvgHeartRate   int       `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   int       `json:"max_heart_rate,omitempty"`
	Notes          string    `json:"notes,omitempty"`

	// Line is the source CSV line the record came from. It ties a commit
	// failure back to the previewed row and is not serialized.
	Line int `json:"-"`
}

// LapSample is one raw telemetry row from a device-style export.
type LapSample struct {
	Timestamp      time.Time
	DistanceMeters float64 // cumulative
	DurationSecs   float64
	PaceSeconds    int
	HeartRate      int
	SpeedMPS       float64
	LapNumber      int // 0 when the export has no explicit lap column
}

// Lap summarizes an ordered run of samples.
type Lap struct {
	LapNumber      int      `json:"lap_number"`
	DistanceMeters float64  `json:"distance"`
	TimeSeconds    float64  `json:"time"`
	PaceSeconds    int      `json:"pace"`
	AvgHeartRate   int      `json:"heart_rate"`
	Judgment       Judgment `json:"judgment"`
}

// ValidationIssue describes one problem found while processing a row.
type ValidationIssue struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
}

// Warning is a deduplicated issue type in the preview report. Count keeps the
// report bounded regardless of how many rows triggered the same problem.
type Warning struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}

// Statistics aggregates counts and detection metadata for one pipeline run.
type Statistics struct {
	TotalRows        int      `json:"total_rows"`
	ValidRows        int      `json:"valid_rows"`
	InvalidRows      int      `json:"invalid_rows"`
	DetectedEncoding string   `json:"detected_encoding"`
	DetectedFormat   string   `json:"detected_format"`
	ColumnsCount     int      `json:"columns_count"`
	Columns          []string `json:"columns,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// PreviewReport is the read-only result of a dry run. It is a pure function
// of the input bytes and is never persisted.
type PreviewReport struct {
	Data        []WorkoutRecord `json:"data"`
	Statistics  Statistics      `json:"statistics"`
	LapAnalysis []Lap           `json:"lap_analysis"`
	Warnings    []Warning       `json:"warnings"`
	DashCount   int             `json:"dash_count"`

	// Token references the cached parse so a commit can reuse it.
	Token string `json:"token,omitempty"`
}

// Overrides carries user-supplied values applied at commit time to fields the
// row itself does not specify.
type Overrides struct {
	WorkoutDate   *time.Time `json:"workout_date,omitempty"`
	WorkoutTypeID string     `json:"workout_type_id,omitempty"`
	Intensity     string     `json:"intensity,omitempty"`
}

// CommitStatistics summarizes a persisted import.
type CommitStatistics struct {
	TotalProcessed    int    `json:"total_processed"`
	SuccessfulImports int    `json:"successful_imports"`
	FailedImports     int    `json:"failed_imports"`
	WorkoutDate       string `json:"workout_date,omitempty"`
	WorkoutType       string `json:"workout_type,omitempty"`
	Intensity         string `json:"intensity,omitempty"`
}

// ImportResult is returned by Commit. Workouts holds the ids of created
// records; FailedRows holds the source line numbers of rows that were invalid
// or whose insert failed.
type ImportResult struct {
	Workouts   []string         `json:"workouts"`
	FailedRows []int            `json:"failed_workouts"`
	Statistics CommitStatistics `json:"statistics"`
	Warnings   []string         `json:"warnings"`
}

// WorkoutType identifies a configured workout category.
type WorkoutType struct {
	ID   string
	Name string
}

// CreatedWorkout pairs a persisted record's id with its source line.
type CreatedWorkout struct {
	ID   string
	Line int
}

// FailedWorkout records a row the store could not persist.
type FailedWorkout struct {
	Line   int
	Reason string
}

// WorkoutStore persists workout records. Implementations must isolate row
// failures so one bad insert does not abort the batch.
type WorkoutStore interface {
	CreateBatch(ctx context.Context, records []WorkoutRecord, typeID, intensity string) ([]CreatedWorkout, []FailedWorkout, error)
}

// WorkoutTypeStore resolves workout type ids supplied as overrides.
type WorkoutTypeStore interface {
	Lookup(ctx context.Context, id string) (WorkoutType, error)
}

// ImportConfig holds the pipeline's tunable bounds. The plausibility bounds
// and lap threshold are inferred defaults, not authoritative constants, so
// they are configuration rather than package-level values.
type ImportConfig struct {
	MaxFileSize   int64         // bytes; files above this are rejected
	Timeout       time.Duration // wall-clock guard over parse+validate+aggregate
	SampleSize    int           // valid rows included in preview data
	MinPaceSecs   int           // fastest plausible pace (s/km)
	MaxPaceSecs   int           // slowest plausible pace (s/km)
	MinHeartRate  int           // bpm
	MaxHeartRate  int           // bpm
	LapMeters     float64       // synthesized lap boundary distance
	CacheTTL      time.Duration // how long a parsed preview stays reusable
	MaxConcurrent int           // parallel imports
	MaxWaitTime   time.Duration // slot wait before rejecting
}

// DefaultImportConfig returns the documented defaults.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		MaxFileSize:   10 * 1024 * 1024,
		Timeout:       30 * time.Second,
		SampleSize:    10,
		MinPaceSecs:   120,  // 2:00/km
		MaxPaceSecs:   1200, // 20:00/km
		MinHeartRate:  30,
		MaxHeartRate:  250,
		LapMeters:     1000,
		CacheTTL:      10 * time.Minute,
		MaxConcurrent: 5,
		MaxWaitTime:   30 * time.Second,
	}
}

// parsedFile is the internal product of decode+parse+detect, shared by
// preview and commit so both phases see identical rows.
type parsedFile struct {
	Encoding   string
	Confidence float64
	Format     schema.Format
	Columns    schema.ColumnMap
	Header     []string
	Rows       []ParsedRow
	BadRows    []ValidationIssue
	DashCount  int
}
