package core

// validate.go turns parsed rows into workout records.
//
// A row is invalid when a required field is missing or unparsable: no date,
// non-positive or non-finite distance or duration. A row with well-formed but
// implausible values (a 1:00/km pace, a 300 bpm heart rate) stays valid and
// is flagged with a severity-"warning" issue, so the user can keep or fix it.

import (
	"fmt"
	"time"

	"github.com/stridelog/importer/internal/schema"
)

// rowValidator validates data rows against the detected column layout.
type rowValidator struct {
	cols    schema.ColumnMap
	header  []string
	cfg     ImportConfig
	distIsM bool
	hasDate bool
}

func newRowValidator(header []string, cols schema.ColumnMap, cfg ImportConfig) *rowValidator {
	v := &rowValidator{cols: cols, header: header, cfg: cfg}
	if idx, ok := cols[schema.RoleDistance]; ok && idx < len(header) {
		v.distIsM = schema.UnitIsMeters(header[idx])
	}
	v.hasDate = cols.Has(schema.RoleDate)
	return v
}

// cell returns the cleaned cell for a role, or "" when the column is absent
// or the row is short.
func (v *rowValidator) cell(row ParsedRow, role schema.Role) string {
	idx, ok := v.cols[role]
	if !ok || idx >= len(row.Fields) {
		return ""
	}
	return CleanCell(row.Fields[idx])
}

// validate turns one row into a WorkoutRecord or a set of issues. The
// returned issues may include warnings even when ok is true.
func (v *rowValidator) validate(row ParsedRow) (rec WorkoutRecord, issues []ValidationIssue, ok bool) {
	invalid := func(format string, args ...any) {
		issues = append(issues, ValidationIssue{
			Type:     IssueValidationError,
			Message:  fmt.Sprintf("line %d: ", row.Line) + fmt.Sprintf(format, args...),
			Severity: SeverityError,
			Line:     row.Line,
		})
	}
	warn := func(issueType, format string, args ...any) {
		issues = append(issues, ValidationIssue{
			Type:     issueType,
			Message:  fmt.Sprintf("line %d: ", row.Line) + fmt.Sprintf(format, args...),
			Severity: SeverityWarning,
			Line:     row.Line,
		})
	}

	// Date. Required when the layout has a date column; telemetry layouts
	// may carry timestamps instead, in which case the commit override or
	// the sample timestamp supplies the date.
	dateRaw := v.cell(row, schema.RoleDate)
	if v.hasDate {
		if dateRaw == "" {
			invalid("missing required date")
		} else if d, parsed := parseDate(dateRaw); parsed {
			rec.Date = d
		} else {
			invalid("unparsable date %q", dateRaw)
		}
	} else if tsRaw := v.cell(row, schema.RoleTimestamp); tsRaw != "" {
		if ts, parsed := parseTimestamp(tsRaw); parsed {
			rec.Date = ts.Truncate(24 * time.Hour)
		}
	}

	// Distance: required, positive, finite.
	distRaw := v.cell(row, schema.RoleDistance)
	if distRaw == "" || isDash(distRaw) {
		invalid("missing required distance")
	} else if d, parsed := parseDistanceMeters(distRaw, v.distIsM); !parsed {
		invalid("unparsable distance %q", distRaw)
	} else if d <= 0 {
		invalid("distance must be positive, got %v", d)
	} else {
		rec.DistanceMeters = d
	}

	// Duration: required, positive.
	durRaw := v.cell(row, schema.RoleDuration)
	if durRaw == "" || isDash(durRaw) {
		invalid("missing required time")
	} else if secs, parsed := parseDurationSeconds(durRaw); !parsed {
		invalid("unparsable time %q", durRaw)
	} else if secs <= 0 {
		invalid("time must be positive, got %v", secs)
	} else {
		rec.TimesSeconds = []int{int(secs + 0.5)}
	}

	if len(issues) > 0 {
		return WorkoutRecord{}, issues, false
	}

	// Derived pace plus plausibility check. Out-of-range pace is a warning;
	// the record itself remains valid.
	rec.AvgPaceSeconds = paceFor(rec.DistanceMeters, float64(rec.TimesSeconds[0]))
	if rec.AvgPaceSeconds > 0 && (rec.AvgPaceSeconds < v.cfg.MinPaceSecs || rec.AvgPaceSeconds > v.cfg.MaxPaceSecs) {
		warn(IssueImplausiblePace, "pace %s/km is outside the plausible range %s-%s",
			formatPace(rec.AvgPaceSeconds), formatPace(v.cfg.MinPaceSecs), formatPace(v.cfg.MaxPaceSecs))
	}

	// Optional fields. A bad optional value is dropped with a warning, not
	// an invalid row.
	if hrRaw := v.cell(row, schema.RoleHeartRate); hrRaw != "" && !isDash(hrRaw) {
		if hr, parsed := parseHeartRate(hrRaw); parsed {
			rec.AvgHeartRate = hr
			if hr < v.cfg.MinHeartRate || hr > v.cfg.MaxHeartRate {
				warn(IssueHeartRateRange, "heart rate %d bpm is outside %d-%d",
					hr, v.cfg.MinHeartRate, v.cfg.MaxHeartRate)
			}
		}
	}
	if hrRaw := v.cell(row, schema.RoleMaxHeartRate); hrRaw != "" && !isDash(hrRaw) {
		if hr, parsed := parseHeartRate(hrRaw); parsed {
			rec.MaxHeartRate = hr
			if hr < v.cfg.MinHeartRate || hr > v.cfg.MaxHeartRate {
				warn(IssueHeartRateRange, "max heart rate %d bpm is outside %d-%d",
					hr, v.cfg.MinHeartRate, v.cfg.MaxHeartRate)
			}
		}
	}

	rec.ActivityType = v.cell(row, schema.RoleActivityType)
	if notes := v.cell(row, schema.RoleNotes); !isDash(notes) {
		rec.Notes = notes
	}
	rec.Line = row.Line

	return rec, issues, true
}

// formatPace renders seconds-per-km as "m:ss".
func formatPace(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
