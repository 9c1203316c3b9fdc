// Package schema classifies the column layout of uploaded workout CSV files.
//
// Two families of exports are recognized: device-style telemetry exports
// (per-sample rows with timestamps, cumulative distance and heart rate, often
// with Japanese headers) and generic training-log summaries (one row per
// workout). Anything else is classified as unknown and parsed with keyword
// heuristics; unknown is a warning, never a failure.
package schema

import (
	"regexp"
	"strings"
)

// Format tags the detected column layout of an upload.
type Format string

const (
	FormatDeviceExport Format = "device_export"
	FormatGeneric      Format = "generic"
	FormatUnknown      Format = "unknown"
)

// Role names the semantic meaning of a column, independent of its header text.
type Role string

const (
	RoleDate         Role = "date"
	RoleActivityType Role = "activity_type"
	RoleDistance     Role = "distance"
	RoleDuration     Role = "duration"
	RolePace         Role = "pace"
	RoleHeartRate    Role = "heart_rate"
	RoleMaxHeartRate Role = "max_heart_rate"
	RoleNotes        Role = "notes"
	RoleLapNumber    Role = "lap_number"
	RoleTimestamp    Role = "timestamp"
	RoleSpeed        Role = "speed"
)

// ColumnMap resolves roles to column positions in the header row.
type ColumnMap map[Role]int

// Has reports whether the role was resolved.
func (m ColumnMap) Has(r Role) bool {
	_, ok := m[r]
	return ok
}

// knownSchema is an exact header set for a recognized export format.
type knownSchema struct {
	format  Format
	columns []string
}

// Exact header sets observed in real exports. Matching is case-insensitive
// and ignores column order and extra columns.
var knownSchemas = []knownSchema{
	{FormatGeneric, []string{"date", "activity type", "distance", "time", "notes"}},
	{FormatGeneric, []string{"date", "distance", "time"}},
	{FormatDeviceExport, []string{"timestamp", "distance", "duration", "pace", "heart_rate", "speed"}},
	{FormatDeviceExport, []string{"lap", "distance", "time", "avg pace", "avg hr"}},
	{FormatDeviceExport, []string{"ラップ", "タイム", "距離", "平均ペース", "平均心拍"}},
}

// roleKeywords drives fuzzy matching: a header column is assigned the first
// role whose keyword it contains. Order matters; more specific roles first.
var roleKeywords = []struct {
	role     Role
	keywords []string
}{
	{RoleLapNumber, []string{"lap", "split", "ラップ", "区間"}},
	{RoleMaxHeartRate, []string{"max hr", "max heart", "最大心拍"}},
	{RoleHeartRate, []string{"heart", "hr", "bpm", "心拍"}},
	{RoleTimestamp, []string{"timestamp", "time stamp", "時刻"}},
	{RolePace, []string{"pace", "ペース"}},
	{RoleSpeed, []string{"speed", "速度"}},
	{RoleDistance, []string{"distance", "dist", "km", "距離"}},
	{RoleDuration, []string{"time", "duration", "elapsed", "タイム", "時間"}},
	{RoleDate, []string{"date", "日付", "日時"}},
	{RoleActivityType, []string{"activity", "type", "sport", "種目"}},
	{RoleNotes, []string{"note", "memo", "comment", "メモ", "コメント", "備考"}},
}

// Detect classifies the header against known schemas, falling back to fuzzy
// keyword matching. It returns the format tag and the resolved column map.
// The sample rows refine ambiguous layouts: a file whose rows carry
// per-sample timestamps is telemetry even if the header alone looks generic.
func Detect(header []string, sample [][]string) (Format, ColumnMap) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalize(h)
	}

	cols := mapColumns(normalized)

	// Exact match against a known schema wins.
	for _, ks := range knownSchemas {
		if containsAll(normalized, ks.columns) {
			return ks.format, cols
		}
	}

	// Telemetry layouts have either per-sample timestamps or explicit lap
	// markers alongside distance.
	if cols.Has(RoleDistance) && (cols.Has(RoleTimestamp) || cols.Has(RoleLapNumber)) {
		return FormatDeviceExport, cols
	}

	// A summary layout needs at least a date plus distance or duration.
	if cols.Has(RoleDate) && (cols.Has(RoleDistance) || cols.Has(RoleDuration)) {
		// A date column whose sampled cells all carry a time of day is a
		// per-sample timestamp column; the file is telemetry, not a summary.
		if cols.Has(RoleDistance) && dateColumnIsTimestamps(cols, sample) {
			cols[RoleTimestamp] = cols[RoleDate]
			delete(cols, RoleDate)
			return FormatDeviceExport, cols
		}
		return FormatGeneric, cols
	}

	return FormatUnknown, cols
}

var timeOfDayRegex = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}`)

// dateColumnIsTimestamps reports whether every non-empty sampled cell in the
// date column carries a time-of-day component. Summary logs record bare
// dates; device telemetry records full timestamps.
func dateColumnIsTimestamps(cols ColumnMap, sample [][]string) bool {
	idx := cols[RoleDate]
	seen := false
	for _, row := range sample {
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			continue
		}
		if !timeOfDayRegex.MatchString(cell) {
			return false
		}
		seen = true
	}
	return seen
}

// mapColumns assigns a role to each header column by keyword. The first
// column matching a role keeps it; later duplicates are ignored.
func mapColumns(normalized []string) ColumnMap {
	cols := make(ColumnMap)
	claimed := make([]bool, len(normalized))

	for _, rk := range roleKeywords {
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			if matchesAny(h, rk.keywords) {
				if !cols.Has(rk.role) {
					cols[rk.role] = i
					claimed[i] = true
				}
			}
		}
	}

	return cols
}

func matchesAny(header string, keywords []string) bool {
	for _, kw := range keywords {
		if header == kw {
			return true
		}
		// Short ASCII keywords ("hr", "km") only match whole words to avoid
		// false hits inside unrelated headers.
		if len(kw) <= 2 {
			for _, word := range strings.FieldsFunc(header, func(r rune) bool {
				return r == ' ' || r == '_' || r == '-' || r == '(' || r == ')' || r == '/'
			}) {
				if word == kw {
					return true
				}
			}
			continue
		}
		if strings.Contains(header, kw) {
			return true
		}
	}
	return false
}

func containsAll(normalized, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range normalized {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// normalize lowercases a header and strips surrounding whitespace and a
// trailing unit suffix such as "(km)" or "(bpm)".
func normalize(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.LastIndex(h, "("); i > 0 && strings.HasSuffix(h, ")") {
		h = strings.TrimSpace(h[:i]) + " " + h[i:]
	}
	return h
}

// UnitIsMeters reports whether the distance header declares meters rather
// than kilometers.
func UnitIsMeters(header string) bool {
	h := strings.ToLower(header)
	return strings.Contains(h, "(m)") || strings.Contains(h, "meters") || strings.Contains(h, "metres")
}
