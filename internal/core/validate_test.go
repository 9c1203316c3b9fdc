package core

import (
	"testing"
	"time"

	"github.com/stridelog/importer/internal/schema"
)

func trainingLogValidator(t *testing.T, header []string) *rowValidator {
	t.Helper()
	_, cols := schema.Detect(header, nil)
	return newRowValidator(header, cols, DefaultImportConfig())
}

// ============================================================================
// Row Validation Tests
// ============================================================================

func TestValidate_ValidRow(t *testing.T) {
	v := trainingLogValidator(t, []string{"Date", "Activity Type", "Distance", "Time", "Notes"})

	rec, issues, ok := v.validate(ParsedRow{
		Line:   2,
		Fields: []string{"2024-01-15", "Easy Run", "5.0", "30:00", "morning run"},
	})
	if !ok {
		t.Fatalf("validate() ok = false, issues = %v", issues)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
	if !rec.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", rec.Date)
	}
	if rec.DistanceMeters != 5000 {
		t.Errorf("DistanceMeters = %v, want 5000", rec.DistanceMeters)
	}
	if len(rec.TimesSeconds) != 1 || rec.TimesSeconds[0] != 1800 {
		t.Errorf("TimesSeconds = %v, want [1800]", rec.TimesSeconds)
	}
	if rec.AvgPaceSeconds != 360 {
		t.Errorf("AvgPaceSeconds = %d, want 360", rec.AvgPaceSeconds)
	}
	if rec.ActivityType != "Easy Run" || rec.Notes != "morning run" {
		t.Errorf("ActivityType = %q, Notes = %q", rec.ActivityType, rec.Notes)
	}
}

func TestValidate_InvalidRows(t *testing.T) {
	header := []string{"Date", "Activity Type", "Distance", "Time", "Notes"}

	tests := []struct {
		name   string
		fields []string
	}{
		{name: "missing date", fields: []string{"", "Run", "5.0", "30:00", ""}},
		{name: "unparsable date", fields: []string{"soon", "Run", "5.0", "30:00", ""}},
		{name: "zero distance", fields: []string{"2024-01-15", "Run", "0", "30:00", ""}},
		{name: "missing distance", fields: []string{"2024-01-15", "Run", "-", "30:00", ""}},
		{name: "unparsable distance", fields: []string{"2024-01-15", "Run", "far", "30:00", ""}},
		{name: "missing time", fields: []string{"2024-01-15", "Run", "5.0", "", ""}},
		{name: "unparsable time", fields: []string{"2024-01-15", "Run", "5.0", "later", ""}},
		{name: "short row missing required cells", fields: []string{"2024-01-15"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := trainingLogValidator(t, header)
			_, issues, ok := v.validate(ParsedRow{Line: 2, Fields: tt.fields})
			if ok {
				t.Fatal("validate() ok = true, want false")
			}
			if len(issues) == 0 {
				t.Fatal("no issues reported for invalid row")
			}
			for _, is := range issues {
				if is.Type != IssueValidationError {
					t.Errorf("issue type = %q, want %q", is.Type, IssueValidationError)
				}
				if is.Severity != SeverityError {
					t.Errorf("issue severity = %q, want %q", is.Severity, SeverityError)
				}
				if is.Line != 2 {
					t.Errorf("issue line = %d, want 2", is.Line)
				}
			}
		})
	}
}

func TestValidate_ImplausiblePaceIsWarningNotError(t *testing.T) {
	v := trainingLogValidator(t, []string{"Date", "Activity Type", "Distance", "Time", "Notes"})

	// 5 km in 5 minutes is a 1:00/km pace.
	rec, issues, ok := v.validate(ParsedRow{
		Line:   2,
		Fields: []string{"2024-01-15", "Sprint", "5.0", "5:00", ""},
	})
	if !ok {
		t.Fatalf("validate() ok = false, issues = %v", issues)
	}
	if rec.AvgPaceSeconds != 60 {
		t.Errorf("AvgPaceSeconds = %d, want 60", rec.AvgPaceSeconds)
	}
	if len(issues) != 1 {
		t.Fatalf("len(issues) = %d, want 1", len(issues))
	}
	if issues[0].Type != IssueImplausiblePace || issues[0].Severity != SeverityWarning {
		t.Errorf("issue = %+v, want implausible_pace warning", issues[0])
	}
}

func TestValidate_HeartRateOutOfRange(t *testing.T) {
	header := []string{"Date", "Distance", "Time", "Avg HR"}

	tests := []struct {
		name      string
		hr        string
		wantHR    int
		wantWarns int
	}{
		{name: "normal", hr: "150", wantHR: 150, wantWarns: 0},
		{name: "too high", hr: "300", wantHR: 300, wantWarns: 1},
		{name: "too low", hr: "20", wantHR: 20, wantWarns: 1},
		{name: "absent dash", hr: "-", wantHR: 0, wantWarns: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := trainingLogValidator(t, header)
			rec, issues, ok := v.validate(ParsedRow{
				Line:   2,
				Fields: []string{"2024-01-15", "5.0", "30:00", tt.hr},
			})
			if !ok {
				t.Fatalf("validate() ok = false, issues = %v", issues)
			}
			if rec.AvgHeartRate != tt.wantHR {
				t.Errorf("AvgHeartRate = %d, want %d", rec.AvgHeartRate, tt.wantHR)
			}
			if len(issues) != tt.wantWarns {
				t.Fatalf("len(issues) = %d, want %d: %v", len(issues), tt.wantWarns, issues)
			}
			for _, is := range issues {
				if is.Type != IssueHeartRateRange || is.Severity != SeverityWarning {
					t.Errorf("issue = %+v, want heart_rate_out_of_range warning", is)
				}
			}
		})
	}
}

func TestValidate_MetersHeader(t *testing.T) {
	header := []string{"Date", "Distance (m)", "Time"}
	v := trainingLogValidator(t, header)

	rec, _, ok := v.validate(ParsedRow{Line: 2, Fields: []string{"2024-01-15", "800", "3:00"}})
	if !ok {
		t.Fatal("validate() ok = false")
	}
	if rec.DistanceMeters != 800 {
		t.Errorf("DistanceMeters = %v, want 800", rec.DistanceMeters)
	}
}

func TestValidate_TimestampSuppliesDate(t *testing.T) {
	header := []string{"Timestamp", "Distance", "Duration", "Pace", "Heart_Rate", "Speed"}
	v := trainingLogValidator(t, header)

	rec, _, ok := v.validate(ParsedRow{
		Line:   2,
		Fields: []string{"2024-03-10T09:15:00Z", "5000", "1800", "5:30", "150", "2.8"},
	})
	if !ok {
		t.Fatal("validate() ok = false")
	}
	if rec.Date.IsZero() {
		t.Fatal("Date is zero, want date from timestamp")
	}
	if rec.Date.Hour() != 0 || rec.Date.Minute() != 0 {
		t.Errorf("Date = %v, want midnight", rec.Date)
	}
}
