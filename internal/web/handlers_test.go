package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stridelog/importer/internal/config"
	"github.com/stridelog/importer/internal/core"
)

type memoryStore struct {
	created int
}

func (m *memoryStore) CreateBatch(_ context.Context, records []core.WorkoutRecord, _, _ string) ([]core.CreatedWorkout, []core.FailedWorkout, error) {
	var out []core.CreatedWorkout
	for _, rec := range records {
		m.created++
		out = append(out, core.CreatedWorkout{ID: fmt.Sprintf("id-%d", m.created), Line: rec.Line})
	}
	return out, nil, nil
}

func newTestServer(store core.WorkoutStore) *Server {
	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: time.Minute},
		Import: config.ImportConfig{MaxFileSize: 10 * 1024 * 1024},
		Rate:   config.RateLimitConfig{Enabled: false},
	}
	svc := core.NewService(store, nil, core.DefaultImportConfig())
	return NewServer(svc, nil, cfg)
}

// multipartBody builds a multipart form with a "file" part plus extra fields.
func multipartBody(t *testing.T, csv string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if csv != "" {
		part, err := mw.CreateFormFile("file", "workouts.csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(csv)); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

// ============================================================================
// Preview Endpoint Tests
// ============================================================================

func TestHandlePreview(t *testing.T) {
	srv := newTestServer(&memoryStore{})

	body, contentType := multipartBody(t,
		"Date,Activity Type,Distance,Time,Notes\n2024-01-15,Easy Run,5.0,30:00,morning\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var report core.PreviewReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Statistics.TotalRows != 1 || report.Statistics.ValidRows != 1 {
		t.Errorf("statistics = %+v", report.Statistics)
	}
	if report.Token == "" {
		t.Error("response has no token")
	}
}

func TestHandlePreview_MissingFile(t *testing.T) {
	srv := newTestServer(&memoryStore{})

	body, contentType := multipartBody(t, "", map[string]string{"unused": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Type != "missing_file" {
		t.Errorf("error type = %q, want missing_file", resp.Error.Type)
	}
}

func TestHandlePreview_EmptyFileError(t *testing.T) {
	srv := newTestServer(&memoryStore{})

	body, contentType := multipartBody(t, "\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Type != core.ErrTypeEmptyFile {
		t.Errorf("error type = %q, want %q", resp.Error.Type, core.ErrTypeEmptyFile)
	}
	if resp.Error.Suggestion == "" {
		t.Error("error has no suggestion")
	}
}

func TestHandlePreview_JapaneseJudgmentLabels(t *testing.T) {
	srv := newTestServer(&memoryStore{})

	body, contentType := multipartBody(t,
		"Lap,Distance,Time,Avg Pace,Avg HR\n1,1000,300,5:00,150\n2,2000,600,5:00,152\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import/preview?lang=ja", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "有効") {
		t.Errorf("response lacks localized judgment label: %s", rec.Body.String())
	}
}

// ============================================================================
// Commit Endpoint Tests
// ============================================================================

func TestHandleCommit_WithToken(t *testing.T) {
	store := &memoryStore{}
	srv := newTestServer(store)

	csv := "Date,Distance,Time\n2024-01-15,5.0,30:00\n"
	body, contentType := multipartBody(t, csv, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d", rec.Code)
	}
	var report core.PreviewReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}

	body, contentType = multipartBody(t, "", map[string]string{"token": report.Token})
	req = httptest.NewRequest(http.MethodPost, "/api/import/commit", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("commit status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result core.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Workouts) != 1 {
		t.Errorf("len(Workouts) = %d, want 1", len(result.Workouts))
	}
	if store.created != 1 {
		t.Errorf("store.created = %d, want 1", store.created)
	}
}

func TestHandleCommit_MissingInput(t *testing.T) {
	srv := newTestServer(&memoryStore{})

	body, contentType := multipartBody(t, "", map[string]string{"intensity": "low"})
	req := httptest.NewRequest(http.MethodPost, "/api/import/commit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCommit_BadDateOverride(t *testing.T) {
	srv := newTestServer(&memoryStore{})

	body, contentType := multipartBody(t,
		"Date,Distance,Time\n2024-01-15,5.0,30:00\n",
		map[string]string{"workout_date": "next tuesday"})
	req := httptest.NewRequest(http.MethodPost, "/api/import/commit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Type != "invalid_workout_date" {
		t.Errorf("error type = %q, want invalid_workout_date", resp.Error.Type)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&memoryStore{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
