package core

import (
	"testing"
	"time"
)

// ============================================================================
// CleanCell Tests
// ============================================================================

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain value", input: "5.0", want: "5.0"},
		{name: "whitespace trimmed", input: "  5.0  ", want: "5.0"},
		{name: "excel formula prefix", input: `="00123"`, want: "00123"},
		{name: "leading equals", input: "=SUM", want: "SUM"},
		{name: "surrounding quotes", input: `"Easy Run"`, want: "Easy Run"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// parseDate Tests
// ============================================================================

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{name: "ISO", input: "2024-01-15", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "slash", input: "2024/01/15", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "US", input: "1/15/2024", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "japanese", input: "2024年1月15日", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "compact", input: "20240115", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "not a date", input: "yesterday", ok: false},
		{name: "impossible date", input: "2024-02-31", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "dash placeholder", input: "-", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// parseDurationSeconds Tests
// ============================================================================

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "mm:ss", input: "30:00", want: 1800, ok: true},
		{name: "h:mm:ss", input: "1:02:03", want: 3723, ok: true},
		{name: "plain seconds", input: "45", want: 45, ok: true},
		{name: "fractional seconds", input: "45.5", want: 45.5, ok: true},
		{name: "go duration", input: "1h2m3s", want: 3723, ok: true},
		{name: "negative rejected", input: "-30", ok: false},
		{name: "too many colons", input: "1:2:3:4", ok: false},
		{name: "garbage", input: "fast", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "dash placeholder", input: "-", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDurationSeconds(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseDurationSeconds(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parseDurationSeconds(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// parseDistanceMeters Tests
// ============================================================================

func TestParseDistanceMeters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		isMeters bool
		want     float64
		ok       bool
	}{
		{name: "km value scaled", input: "5.0", want: 5000, ok: true},
		{name: "small km value", input: "0.4", want: 400, ok: true},
		{name: "large value taken as meters", input: "5000", want: 5000, ok: true},
		{name: "meters header", input: "800", isMeters: true, want: 800, ok: true},
		{name: "thousands separator", input: "10,500", want: 10500, ok: true},
		{name: "garbage", input: "far", ok: false},
		{name: "dash", input: "-", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDistanceMeters(tt.input, tt.isMeters)
			if ok != tt.ok {
				t.Fatalf("parseDistanceMeters(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parseDistanceMeters(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// parsePaceSeconds / paceFor Tests
// ============================================================================

func TestParsePaceSeconds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{name: "m:ss", input: "5:30", want: 330, ok: true},
		{name: "with unit suffix", input: "5:30/km", want: 330, ok: true},
		{name: "plain seconds", input: "330", want: 330, ok: true},
		{name: "dash", input: "-", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePaceSeconds(tt.input)
			if ok != tt.ok {
				t.Fatalf("parsePaceSeconds(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parsePaceSeconds(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPaceFor(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		duration float64
		want     int
	}{
		{name: "5km in 30min", distance: 5000, duration: 1800, want: 360},
		{name: "1km in 1min", distance: 1000, duration: 60, want: 60},
		{name: "zero distance", distance: 0, duration: 1800, want: 0},
		{name: "zero duration", distance: 5000, duration: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paceFor(tt.distance, tt.duration); got != tt.want {
				t.Errorf("paceFor(%v, %v) = %d, want %d", tt.distance, tt.duration, got, tt.want)
			}
		})
	}
}

// ============================================================================
// isDash Tests
// ============================================================================

func TestIsDash(t *testing.T) {
	dashes := []string{"-", "--", "—", "－"}
	for _, d := range dashes {
		if !isDash(d) {
			t.Errorf("isDash(%q) = false, want true", d)
		}
	}
	notDashes := []string{"", "5", "-5", "a-b"}
	for _, d := range notDashes {
		if isDash(d) {
			t.Errorf("isDash(%q) = true, want false", d)
		}
	}
}
