package web

// errors.go maps pipeline failures to HTTP responses.
//
// Every error response carries a machine-readable type, a human message and
// an actionable suggestion. The technical error is logged server-side with
// the request id for correlation; the client only sees the mapped message.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stridelog/importer/internal/core"
	"github.com/stridelog/importer/internal/logging"
)

// ErrorResponse is the JSON error envelope for all API endpoints.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// respondError logs err and writes the mapped JSON error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"type", body.Type,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: body})
}

// mapError picks the status code and client-facing body for an error.
func mapError(err error) (int, ErrorBody) {
	if errors.Is(err, core.ErrTooManyImports) {
		return http.StatusTooManyRequests, ErrorBody{
			Type:       "too_many_imports",
			Message:    err.Error(),
			Suggestion: "Wait a few seconds and retry",
		}
	}

	if pe, ok := core.AsPipelineError(err); ok {
		status := http.StatusBadRequest
		switch pe.Type {
		case core.ErrTypeFileTooLarge:
			status = http.StatusRequestEntityTooLarge
		case core.ErrTypeUnsupportedEncoding:
			status = http.StatusUnsupportedMediaType
		case core.ErrTypeTimeout:
			status = http.StatusRequestTimeout
		case core.ErrTypeUnknownWorkoutType:
			status = http.StatusUnprocessableEntity
		}
		return status, ErrorBody{Type: pe.Type, Message: pe.Message, Suggestion: pe.Suggestion}
	}

	return http.StatusInternalServerError, ErrorBody{
		Type:       "internal_error",
		Message:    "an unexpected error occurred",
		Suggestion: "Retry the request; contact support if the problem persists",
	}
}

// writeError writes a one-off JSON error without going through mapError.
func writeError(w http.ResponseWriter, status int, errType, message, suggestion string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{
		Type:       errType,
		Message:    message,
		Suggestion: suggestion,
	}})
}
