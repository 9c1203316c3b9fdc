package core

// convert.go parses the messy field formats found in real activity exports:
//   - multiple date layouts (ISO, US, EU, Japanese 年月日)
//   - durations as "30:00", "1:02:03", "45" or "1h02m03s"
//   - distances in kilometers or meters, with thousands separators
//   - paces as "5:30" (per km) or plain seconds
//   - placeholder "-" cells, which devices emit for absent readings
//
// All parse* functions treat empty input as absent, not as an error.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Date layouts tried in order. Four-digit years only; activity exports do
// not use two-digit years.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"2006年1月2日",
	"2006年01月02日",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// timestampLayouts are tried for telemetry sample timestamps, which usually
// carry a time component.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"15:04:05",
	"2006-01-02",
}

// CleanCell removes common CSV artifacts from a cell value: surrounding
// whitespace and quotes, plus the Excel formula prefix (="value").
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// isDash reports whether a cell is a placeholder for an absent reading.
func isDash(s string) bool {
	switch s {
	case "-", "--", "—", "－":
		return true
	}
	return false
}

// parseDate parses a calendar date in any supported layout.
func parseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" || isDash(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseTimestamp parses a telemetry sample time.
func parseTimestamp(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" || isDash(s) {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber parses a float, tolerating thousands separators.
func parseNumber(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" || isDash(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseDistanceMeters parses a single summary-row distance cell. Unit
// resolution: the header may declare meters explicitly; otherwise bare
// values of 1000 or more are taken as meters and smaller values as
// kilometers. This matches how training logs record "5.0" for a
// five-kilometer run. Telemetry columns resolve their unit once for the
// whole series instead; see distanceColumnFactor.
func parseDistanceMeters(s string, headerIsMeters bool) (float64, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	if headerIsMeters || v >= 1000 {
		return v, true
	}
	return v * 1000, true
}

// parseDurationSeconds parses a duration cell. Accepted forms:
// "mm:ss", "h:mm:ss", plain seconds ("45" or "45.5"), and Go-style
// "1h02m03s".
func parseDurationSeconds(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" || isDash(s) {
		return 0, false
	}

	if strings.Contains(s, ":") {
		return parseColonDuration(s)
	}

	if strings.ContainsAny(s, "hms") {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return 0, false
		}
		return d.Seconds(), true
	}

	v, ok := parseNumber(s)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// parseColonDuration handles "mm:ss" and "h:mm:ss".
func parseColonDuration(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	total := 0.0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

// parsePaceSeconds parses a pace cell as seconds per kilometer. Accepted
// forms: "5:30", "5:30/km", plain seconds.
func parsePaceSeconds(s string) (int, bool) {
	s = CleanCell(s)
	if s == "" || isDash(s) {
		return 0, false
	}
	s = strings.TrimSuffix(s, "/km")
	s = strings.TrimSuffix(s, "min")
	s = strings.TrimSpace(s)

	if strings.Contains(s, ":") {
		v, ok := parseColonDuration(s)
		if !ok {
			return 0, false
		}
		return int(math.Round(v)), true
	}

	v, ok := parseNumber(s)
	if !ok || v < 0 {
		return 0, false
	}
	return int(math.Round(v)), true
}

// parseHeartRate parses an integral bpm value.
func parseHeartRate(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	hr := int(math.Round(v))
	if hr <= 0 {
		return 0, false
	}
	return hr, true
}

// paceFor computes seconds per kilometer, rounded to the nearest second.
func paceFor(distanceMeters, durationSeconds float64) int {
	if distanceMeters <= 0 || durationSeconds <= 0 {
		return 0
	}
	return int(math.Round(durationSeconds / (distanceMeters / 1000)))
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
