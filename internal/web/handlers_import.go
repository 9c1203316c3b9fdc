package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/stridelog/importer/internal/core"
	"github.com/stridelog/importer/internal/logging"
)

// handlePreview analyzes an uploaded CSV and returns what would be imported.
// Nothing is persisted; the response carries a token for a later commit.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readUpload(w, r, true)
	if !ok {
		return
	}

	if err := s.service.Limiter().Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.service.Limiter().Release()

	report, err := s.service.Preview(r.Context(), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("preview built",
		"encoding", report.Statistics.DetectedEncoding,
		"format", report.Statistics.DetectedFormat,
		"total_rows", report.Statistics.TotalRows,
		"valid_rows", report.Statistics.ValidRows,
	)

	writeJSON(w, previewView(report, requestLang(r)))
}

// handleCommit persists a previously previewed file. The client sends either
// the preview token or the file itself (or both; the token avoids a
// re-parse). Overrides arrive as form values and apply only to fields the
// rows do not specify.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readUpload(w, r, false)
	if !ok {
		return
	}

	token := r.FormValue("token")
	if token == "" && len(data) == 0 {
		writeError(w, http.StatusBadRequest, "missing_input",
			"provide a file or a preview token", "Preview the file first, then commit with its token")
		return
	}

	opts := core.CommitOptions{
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Overrides: core.Overrides{
			WorkoutTypeID: r.FormValue("workout_type_id"),
			Intensity:     r.FormValue("intensity"),
		},
	}
	if raw := r.FormValue("workout_date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_workout_date",
				"workout_date must be YYYY-MM-DD", "Send the date as 2024-01-15")
			return
		}
		opts.Overrides.WorkoutDate = &d
	}

	if err := s.service.Limiter().Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.service.Limiter().Release()

	result, err := s.service.Commit(r.Context(), data, token, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("import committed",
		"created", result.Statistics.SuccessfulImports,
		"failed", result.Statistics.FailedImports,
	)

	writeJSON(w, result)
}

// handleListWorkoutTypes returns the configured workout type catalog.
func (s *Server) handleListWorkoutTypes(w http.ResponseWriter, r *http.Request) {
	if s.types == nil {
		writeJSON(w, []workoutTypeView{})
		return
	}

	types, err := s.types.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]workoutTypeView, 0, len(types))
	for _, wt := range types {
		out = append(out, workoutTypeView{ID: wt.ID, Name: wt.Name})
	}
	writeJSON(w, out)
}

// readUpload extracts the multipart "file" part, bounded by the configured
// maximum size. When fileRequired is false a missing part yields nil data.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, fileRequired bool) ([]byte, bool) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+4096)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, core.ErrTypeFileTooLarge,
				"uploaded file exceeds the size limit", "Split the export into smaller files")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid_form",
			"request is not a valid multipart form", "Send the CSV as a multipart file field named \"file\"")
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		if !fileRequired {
			return nil, true
		}
		writeError(w, http.StatusBadRequest, "missing_file",
			"no file provided", "Send the CSV as a multipart file field named \"file\"")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read_failed",
			"failed to read the uploaded file", "Retry the upload")
		return nil, false
	}
	return data, true
}

type workoutTypeView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// requestLang resolves the response language from the query string or the
// form; only "ja" changes anything.
func requestLang(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return r.FormValue("lang")
}

// lapView is the serialized lap with a localized judgment label.
type lapView struct {
	LapNumber      int     `json:"lap_number"`
	DistanceMeters float64 `json:"distance"`
	TimeSeconds    float64 `json:"time"`
	PaceSeconds    int     `json:"pace"`
	AvgHeartRate   int     `json:"heart_rate"`
	Judgment       string  `json:"judgment"`
}

// reportView shadows LapAnalysis so the judgment labels can be localized at
// the boundary; the engine itself never deals in display strings.
type reportView struct {
	*core.PreviewReport
	LapAnalysis []lapView `json:"lap_analysis"`
}

func previewView(report *core.PreviewReport, lang string) any {
	if lang == "" || lang == "en" {
		return report
	}

	laps := make([]lapView, 0, len(report.LapAnalysis))
	for _, lap := range report.LapAnalysis {
		laps = append(laps, lapView{
			LapNumber:      lap.LapNumber,
			DistanceMeters: lap.DistanceMeters,
			TimeSeconds:    lap.TimeSeconds,
			PaceSeconds:    lap.PaceSeconds,
			AvgHeartRate:   lap.AvgHeartRate,
			Judgment:       lap.Judgment.LocalizedLabel(lang),
		})
	}
	return reportView{PreviewReport: report, LapAnalysis: laps}
}
