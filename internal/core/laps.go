package core

// laps.go groups ordered telemetry samples into laps.
//
// Lap boundaries are cumulative: each lap's distance and time are deltas
// against where the previous lap ended. The aggregation is therefore a single
// ordered fold with an explicit accumulator, never a parallel or reordered
// pass. Row-level validation elsewhere in the pipeline stays free to run in
// any order; only this step is sequential.

import (
	"math"
	"time"

	"github.com/stridelog/importer/internal/schema"
)

// extractSamples pulls telemetry rows out of a device-style export. Rows
// that do not parse as samples are skipped; a summary-style file simply
// yields no samples, which is not an error.
func extractSamples(pf *parsedFile) []LapSample {
	if pf.Format != schema.FormatDeviceExport {
		return nil
	}

	cols := pf.Columns
	get := func(row ParsedRow, role schema.Role) string {
		idx, ok := cols[role]
		if !ok || idx >= len(row.Fields) {
			return ""
		}
		return CleanCell(row.Fields[idx])
	}

	factor := distanceColumnFactor(pf)

	samples := make([]LapSample, 0, len(pf.Rows))
	for _, row := range pf.Rows {
		var s LapSample

		dist, ok := parseNumber(get(row, schema.RoleDistance))
		if !ok {
			continue
		}
		s.DistanceMeters = dist * factor

		if raw := get(row, schema.RoleTimestamp); raw != "" {
			if ts, ok := parseTimestamp(raw); ok {
				s.Timestamp = ts
			}
		}
		if raw := get(row, schema.RoleDuration); raw != "" {
			if secs, ok := parseDurationSeconds(raw); ok {
				s.DurationSecs = secs
			}
		}
		if raw := get(row, schema.RolePace); raw != "" {
			if pace, ok := parsePaceSeconds(raw); ok {
				s.PaceSeconds = pace
			}
		}
		if raw := get(row, schema.RoleHeartRate); raw != "" {
			if hr, ok := parseHeartRate(raw); ok {
				s.HeartRate = hr
			}
		}
		if raw := get(row, schema.RoleSpeed); raw != "" {
			if v, ok := parseNumber(raw); ok {
				s.SpeedMPS = v
			}
		}
		if raw := get(row, schema.RoleLapNumber); raw != "" {
			if v, ok := parseNumber(raw); ok && v > 0 {
				s.LapNumber = int(v)
			}
		}

		samples = append(samples, s)
	}
	return samples
}

// distanceColumnFactor resolves the distance column's unit once for the
// whole series, returning the multiplier to meters. Telemetry exports
// record cumulative meters, so sub-kilometer cells sit next to
// kilometer-scale cells in the same column; a per-cell threshold would read
// one column in two units and make the cumulative series non-monotonic.
// The header may declare meters outright; otherwise a series that reaches
// 1000 is meters and anything smaller is kilometers.
func distanceColumnFactor(pf *parsedFile) float64 {
	idx, ok := pf.Columns[schema.RoleDistance]
	if !ok {
		return 1000
	}
	if idx < len(pf.Header) && schema.UnitIsMeters(pf.Header[idx]) {
		return 1
	}

	max := 0.0
	for _, row := range pf.Rows {
		if idx >= len(row.Fields) {
			continue
		}
		if v, ok := parseNumber(CleanCell(row.Fields[idx])); ok && v > max {
			max = v
		}
	}
	if max >= 1000 {
		return 1
	}
	return 1000
}

// fillDurationsFromTimestamps supplies elapsed seconds from timestamp deltas
// against the first timestamped sample. It only runs when the export has no
// duration column at all; a duration column, when present, is authoritative.
func fillDurationsFromTimestamps(samples []LapSample) {
	for _, s := range samples {
		if s.DurationSecs > 0 {
			return
		}
	}

	var t0 time.Time
	for i := range samples {
		ts := samples[i].Timestamp
		if ts.IsZero() {
			continue
		}
		if t0.IsZero() {
			t0 = ts
		}
		if d := ts.Sub(t0); d > 0 {
			samples[i].DurationSecs = d.Seconds()
		}
	}
}

// lapAccumulator is the running state of the ordered fold.
type lapAccumulator struct {
	lapNumber  int
	startDist  float64 // cumulative distance where the current lap began
	startTime  float64 // cumulative duration where the current lap began
	hrSum      int
	hrCount    int
	curDist    float64
	curTime    float64
	explicitNo int // explicit lap number of the current run, 0 when synthesizing
}

// aggregateLaps folds ordered samples into laps. When the export carries an
// explicit lap-number column, a lap closes whenever that number changes.
// Otherwise boundaries are synthesized every cfg.LapMeters of cumulative
// distance. Judgment uses the same plausibility bounds as row validation and
// depends only on the lap's own metrics.
func aggregateLaps(samples []LapSample, cfg ImportConfig) []Lap {
	if len(samples) == 0 {
		return nil
	}

	fillDurationsFromTimestamps(samples)

	explicit := false
	for _, s := range samples {
		if s.LapNumber > 0 {
			explicit = true
			break
		}
	}

	var laps []Lap
	acc := lapAccumulator{lapNumber: 1}
	if explicit {
		acc.explicitNo = samples[0].LapNumber
	}

	closeLap := func() {
		dist := acc.curDist - acc.startDist
		dur := acc.curTime - acc.startTime
		if dist <= 0 && dur <= 0 {
			return
		}
		lap := Lap{
			LapNumber:      acc.lapNumber,
			DistanceMeters: round1(dist),
			TimeSeconds:    round1(dur),
			PaceSeconds:    paceFor(dist, dur),
		}
		if acc.hrCount > 0 {
			lap.AvgHeartRate = acc.hrSum / acc.hrCount
		}
		lap.Judgment = judgeLap(lap, cfg)
		laps = append(laps, lap)

		acc = lapAccumulator{
			lapNumber: acc.lapNumber + 1,
			startDist: acc.curDist,
			startTime: acc.curTime,
			curDist:   acc.curDist,
			curTime:   acc.curTime,
		}
	}

	for _, s := range samples {
		if explicit && s.LapNumber != acc.explicitNo {
			closeLap()
			acc.explicitNo = s.LapNumber
		}

		acc.curDist = s.DistanceMeters
		if s.DurationSecs > 0 {
			acc.curTime = s.DurationSecs
		}
		if s.HeartRate > 0 {
			acc.hrSum += s.HeartRate
			acc.hrCount++
		}

		if !explicit && acc.curDist-acc.startDist >= cfg.LapMeters {
			closeLap()
		}
	}

	// Flush the trailing partial lap.
	closeLap()

	return laps
}

// judgeLap classifies a lap from its own metrics only.
func judgeLap(lap Lap, cfg ImportConfig) Judgment {
	if lap.DistanceMeters <= 0 || lap.TimeSeconds <= 0 || lap.PaceSeconds <= 0 {
		return JudgmentInvalid
	}
	if lap.PaceSeconds < cfg.MinPaceSecs || lap.PaceSeconds > cfg.MaxPaceSecs {
		return JudgmentWarning
	}
	if lap.AvgHeartRate != 0 && (lap.AvgHeartRate < cfg.MinHeartRate || lap.AvgHeartRate > cfg.MaxHeartRate) {
		return JudgmentWarning
	}
	return JudgmentValid
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
