package core

// commit.go is the persisting entry point.
//
// Commit re-runs parse+validate (or reuses the content-hash cache, which
// guarantees it sees exactly the rows the preview saw), applies the user's
// overrides to fields each row does not specify, and persists every valid
// record. Invalid rows are skipped and enumerated; they are never retried.

import (
	"context"
	"fmt"
	"time"
)

// CommitOptions parameterizes a commit call.
type CommitOptions struct {
	Overrides Overrides

	// IdempotencyKey, when set, makes a repeated commit of the same file
	// with the same key return the recorded result instead of inserting
	// the rows again.
	IdempotencyKey string
}

// Commit persists the valid rows of a previously previewed (or fresh) file.
// Exactly one of data and token must be provided; a token refers to a cached
// preview and avoids re-parsing.
func (s *Service) Commit(ctx context.Context, data []byte, token string, opts CommitOptions) (*ImportResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("commit: no workout store configured")
	}

	var run *cachedRun
	var err error
	switch {
	case token != "":
		run = s.cache.Get(token)
		if run == nil {
			if len(data) == 0 {
				return nil, fmt.Errorf("commit: token expired and no file data supplied")
			}
			_, run, err = s.run(ctx, data)
		}
	default:
		_, run, err = s.run(ctx, data)
	}
	if err != nil {
		return nil, err
	}

	if prior, ok := run.recordedCommit(opts.IdempotencyKey); ok {
		return prior, nil
	}

	// Resolve the workout type before touching any rows so an unknown type
	// aborts with no partial writes.
	var typeName string
	ov := opts.Overrides
	if ov.WorkoutTypeID != "" {
		if s.types == nil {
			return nil, errUnknownWorkoutType(ov.WorkoutTypeID)
		}
		wt, err := s.types.Lookup(ctx, ov.WorkoutTypeID)
		if err != nil {
			return nil, errUnknownWorkoutType(ov.WorkoutTypeID)
		}
		typeName = wt.Name
	}

	// Re-validate from the cached parse. The preview's counts and this
	// loop's counts agree because both fold over the same rows.
	validator := newRowValidator(run.file.Header, run.file.Columns, s.cfg)

	var records []WorkoutRecord
	var failedLines []int
	warnings := newWarningCollector()
	warnings.AddAll(run.file.BadRows)
	for _, bad := range run.file.BadRows {
		failedLines = append(failedLines, bad.Line)
	}

	for _, row := range run.file.Rows {
		rec, issues, ok := validator.validate(row)
		warnings.AddAll(issues)
		if !ok {
			failedLines = append(failedLines, row.Line)
			continue
		}
		records = append(records, applyOverrides(rec, ov))
	}

	created, failed, err := s.store.CreateBatch(ctx, records, ov.WorkoutTypeID, ov.Intensity)
	if err != nil {
		return nil, fmt.Errorf("commit: persist batch: %w", err)
	}

	for _, f := range failed {
		failedLines = append(failedLines, f.Line)
		warnings.Add(ValidationIssue{
			Type:     IssuePersistFailed,
			Message:  fmt.Sprintf("line %d: %s", f.Line, f.Reason),
			Severity: SeverityError,
			Line:     f.Line,
		})
	}

	ids := make([]string, 0, len(created))
	for _, c := range created {
		ids = append(ids, c.ID)
	}

	result := &ImportResult{
		Workouts:   ids,
		FailedRows: failedLines,
		Statistics: CommitStatistics{
			TotalProcessed:    run.report.Statistics.TotalRows,
			SuccessfulImports: len(ids),
			FailedImports:     run.report.Statistics.TotalRows - len(ids),
			WorkoutType:       typeName,
			Intensity:         ov.Intensity,
		},
		Warnings: warningMessages(warnings.List()),
	}
	if ov.WorkoutDate != nil {
		result.Statistics.WorkoutDate = ov.WorkoutDate.Format("2006-01-02")
	}
	if result.FailedRows == nil {
		result.FailedRows = []int{}
	}

	run.recordCommit(opts.IdempotencyKey, result)
	return result, nil
}

// applyOverrides fills fields the row itself does not specify. Row values
// always win; overrides are defaults, not replacements.
func applyOverrides(rec WorkoutRecord, ov Overrides) WorkoutRecord {
	if rec.Date.IsZero() && ov.WorkoutDate != nil {
		rec.Date = *ov.WorkoutDate
	}
	if rec.Date.IsZero() {
		// Rows from telemetry exports with no date column default to today.
		rec.Date = time.Now().Truncate(24 * time.Hour)
	}
	return rec
}

func warningMessages(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		msg := w.Message
		if w.Count > 1 {
			msg = fmt.Sprintf("%s (x%d)", msg, w.Count)
		}
		out = append(out, msg)
	}
	return out
}
