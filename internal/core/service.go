package core

// service.go wires the pipeline's collaborators together.
//
// A Service holds no per-request state: every Preview or Commit call is a
// function of its input bytes plus options, so concurrent calls are safe.
// The run cache is the only shared structure and is internally synchronized.

import (
	"context"
	"fmt"
	"time"

	"github.com/stridelog/importer/internal/encoding"
	"github.com/stridelog/importer/internal/schema"
)

// Service provides the import engine's two entry points.
type Service struct {
	store   WorkoutStore
	types   WorkoutTypeStore
	cfg     ImportConfig
	cache   *runCache
	limiter *ImportLimiter
}

// NewService creates a Service. store may be nil for preview-only use;
// Commit then fails with a configuration error.
func NewService(store WorkoutStore, types WorkoutTypeStore, cfg ImportConfig) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg = DefaultImportConfig()
	}
	return &Service{
		store:   store,
		types:   types,
		cfg:     cfg,
		cache:   newRunCache(cfg.CacheTTL),
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
	}
}

// Config returns the effective pipeline configuration.
func (s *Service) Config() ImportConfig {
	return s.cfg
}

// Limiter exposes the concurrency limiter for HTTP-level admission control.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// run executes decode → parse → detect for a byte payload and caches the
// result under its content hash. It enforces the fatal preconditions and
// the wall-clock guard; everything downstream is pure computation.
func (s *Service) run(ctx context.Context, data []byte) (string, *cachedRun, error) {
	if len(data) == 0 {
		return "", nil, errEmptyFile()
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return "", nil, errFileTooLarge(int64(len(data)), s.cfg.MaxFileSize)
	}

	token := ContentHash(data)
	if cached := s.cache.Get(token); cached != nil {
		return token, cached, nil
	}

	started := time.Now()
	deadline := started.Add(s.cfg.Timeout)

	decoded, err := encoding.Detect(data)
	if err != nil {
		return "", nil, errUnsupportedEncoding(err)
	}

	header, rows, badRows, dashCount, err := parseRows(decoded.Text)
	if err != nil {
		return "", nil, err
	}

	format, cols := schema.Detect(header, sampleFields(rows, 5))

	pf := &parsedFile{
		Encoding:   decoded.Encoding,
		Confidence: decoded.Confidence,
		Format:     format,
		Columns:    cols,
		Header:     header,
		Rows:       rows,
		BadRows:    badRows,
		DashCount:  dashCount,
	}

	report, err := s.buildReport(ctx, pf, started, deadline)
	if err != nil {
		return "", nil, err
	}
	report.Token = token

	run := &cachedRun{file: pf, report: report}
	s.cache.Put(token, run)
	return token, run, nil
}

// buildReport validates every row, aggregates laps and composes the preview.
// It is a pure function of the parsed file; it touches no store.
func (s *Service) buildReport(ctx context.Context, pf *parsedFile, started time.Time, deadline time.Time) (*PreviewReport, error) {
	warnings := newWarningCollector()
	warnings.AddAll(pf.BadRows)

	if pf.Format == schema.FormatUnknown {
		warnings.Info(IssueUnknownFormat,
			fmt.Sprintf("column layout not recognized (%d columns); importing with generic column heuristics", len(pf.Header)))
	}

	validator := newRowValidator(pf.Header, pf.Columns, s.cfg)

	stats := Statistics{
		DetectedEncoding: pf.Encoding,
		DetectedFormat:   string(pf.Format),
		ColumnsCount:     len(pf.Header),
		Columns:          pf.Header,
	}

	var sample []WorkoutRecord
	for i, row := range pf.Rows {
		// The timeout guard surfaces as a fatal error, never as a silently
		// truncated preview.
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errTimeout(time.Since(started).Round(time.Millisecond).String())
			}
			if time.Now().After(deadline) {
				return nil, errTimeout(time.Since(started).Round(time.Millisecond).String())
			}
		}

		stats.TotalRows++
		rec, issues, ok := validator.validate(row)
		warnings.AddAll(issues)
		if !ok {
			stats.InvalidRows++
			continue
		}
		stats.ValidRows++
		if len(sample) < s.cfg.SampleSize {
			sample = append(sample, rec)
		}
	}

	// Malformed lines never reached the validator but still count as rows.
	for range pf.BadRows {
		stats.TotalRows++
		stats.InvalidRows++
	}

	laps := aggregateLaps(extractSamples(pf), s.cfg)

	stats.ProcessingTimeMs = time.Since(started).Milliseconds()

	report := &PreviewReport{
		Data:        sample,
		Statistics:  stats,
		LapAnalysis: laps,
		Warnings:    warnings.List(),
		DashCount:   pf.DashCount,
	}
	if report.Data == nil {
		report.Data = []WorkoutRecord{}
	}
	if report.LapAnalysis == nil {
		report.LapAnalysis = []Lap{}
	}
	if report.Warnings == nil {
		report.Warnings = []Warning{}
	}
	return report, nil
}

// contextCheckInterval is how often (in rows) the pipeline checks for
// cancellation and deadline overrun.
const contextCheckInterval = 100

// sampleFields returns the first n rows' raw fields for format detection.
func sampleFields(rows []ParsedRow, n int) [][]string {
	if len(rows) < n {
		n = len(rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = rows[i].Fields
	}
	return out
}
