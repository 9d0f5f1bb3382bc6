package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/vortex/internal/archive"
	"github.com/hyperengineering/vortex/internal/sheets"
	"github.com/hyperengineering/vortex/internal/store"
	"github.com/hyperengineering/vortex/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {"https://vortex.dev/errors/bad-request", "Bad Request"},
	http.StatusUnauthorized:        {"https://vortex.dev/errors/unauthorized", "Unauthorized"},
	http.StatusNotFound:            {"https://vortex.dev/errors/not-found", "Not Found"},
	http.StatusUnprocessableEntity: {"https://vortex.dev/errors/validation-error", "Validation Error"},
	http.StatusInternalServerError: {"https://vortex.dev/errors/internal-error", "Internal Server Error"},
	http.StatusBadGateway:          {"https://vortex.dev/errors/upstream-error", "Bad Gateway"},
	http.StatusServiceUnavailable:  {"https://vortex.dev/errors/service-unavailable", "Service Unavailable"},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblem(w, status, problemFor(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	p := ProblemWithErrors{
		Problem: problemFor(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	}
	writeProblem(w, http.StatusUnprocessableEntity, p)
}

func problemFor(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{"https://vortex.dev/errors/unknown", http.StatusText(status)}
	}
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

func writeProblem(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapStoreError converts domain errors to Problem Details responses.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, archive.ErrNotConfigured):
		WriteProblem(w, r, http.StatusNotFound, "Archive storage not configured")
	case errors.Is(err, sheets.ErrMissingCredentials):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Google credentials not configured")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
