package core

// errors.go defines the pipeline's fatal error taxonomy.
//
// The engine distinguishes three failure classes:
//
//	PipelineError — a precondition failure (empty file, oversized file,
//	                unsupported encoding, unparsable structure, timeout).
//	                The whole call aborts with no partial result.
//	Invalid row   — the row is excluded and counted; never raised as an error.
//	Warning row   — the row stays valid and is recorded as a warning.
//
// Every PipelineError carries a machine-readable type plus a human message
// and suggestion so callers can render actionable guidance.

import (
	"errors"
	"fmt"
)

// Fatal pipeline error types.
const (
	ErrTypeEmptyFile           = "empty_file"
	ErrTypeFileTooLarge        = "file_too_large"
	ErrTypeUnsupportedEncoding = "unsupported_encoding"
	ErrTypeInvalidCSV          = "invalid_csv"
	ErrTypeTimeout             = "timeout"
	ErrTypeUnknownWorkoutType  = "unknown_workout_type"
)

// Per-row issue types surfaced as warnings, never as errors.
const (
	IssueValidationError = "validation_error"
	IssueImplausiblePace = "implausible_pace"
	IssueHeartRateRange  = "heart_rate_out_of_range"
	IssueMalformedLine   = "malformed_line"
	IssueUnknownFormat   = "unknown_format"
	IssuePersistFailed   = "persist_failed"
)

// PipelineError aborts an entire preview or commit call.
type PipelineError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// suggestions maps fatal types to actionable guidance, in the manner of a
// support reference table: what happened and what the user can do about it.
var suggestions = map[string]string{
	ErrTypeEmptyFile:           "Upload a CSV file that contains at least a header row and one data row",
	ErrTypeFileTooLarge:        "Split the export into smaller files of at most 10 MB each",
	ErrTypeUnsupportedEncoding: "Re-save the file as UTF-8 (or Shift-JIS) and upload it again",
	ErrTypeInvalidCSV:          "Ensure the file is comma-separated text, not a spreadsheet or binary export",
	ErrTypeTimeout:             "The file took too long to process; try a smaller export",
	ErrTypeUnknownWorkoutType:  "Choose a workout type from the configured list",
}

// newPipelineError builds a fatal error with its canonical suggestion.
func newPipelineError(errType, format string, args ...any) *PipelineError {
	return &PipelineError{
		Type:       errType,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestions[errType],
	}
}

func errEmptyFile() *PipelineError {
	return newPipelineError(ErrTypeEmptyFile, "the uploaded file is empty")
}

func errFileTooLarge(size, limit int64) *PipelineError {
	return newPipelineError(ErrTypeFileTooLarge, "file is %d bytes, limit is %d bytes", size, limit)
}

func errUnsupportedEncoding(tried error) *PipelineError {
	return newPipelineError(ErrTypeUnsupportedEncoding, "could not decode file: %v", tried)
}

func errInvalidCSV(cause error) *PipelineError {
	return newPipelineError(ErrTypeInvalidCSV, "file structure is not parsable as CSV: %v", cause)
}

func errTimeout(elapsed string) *PipelineError {
	return newPipelineError(ErrTypeTimeout, "processing exceeded the time limit after %s", elapsed)
}

func errUnknownWorkoutType(id string) *PipelineError {
	return newPipelineError(ErrTypeUnknownWorkoutType, "workout type %q is not configured", id)
}

// AsPipelineError unwraps err to a *PipelineError if one is in its chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
