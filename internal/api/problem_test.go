package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/vortex/internal/archive"
	"github.com/hyperengineering/vortex/internal/sheets"
	"github.com/hyperengineering/vortex/internal/store"
	"github.com/hyperengineering/vortex/internal/validation"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) Problem {
	t.Helper()
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal problem: %v (%s)", err, w.Body.String())
	}
	return p
}

func TestWriteProblem_BodyFormat(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/time-entries", nil)

	WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	p := decodeProblem(t, w)
	want := Problem{
		Type:     "https://vortex.dev/errors/unauthorized",
		Title:    "Unauthorized",
		Status:   401,
		Detail:   "Missing or invalid API key",
		Instance: "/api/v1/time-entries",
	}
	if p != want {
		t.Errorf("problem = %+v, want %+v", p, want)
	}
}

func TestWriteProblem_Types(t *testing.T) {
	tests := []struct {
		status  int
		typeURI string
	}{
		{http.StatusBadRequest, "https://vortex.dev/errors/bad-request"},
		{http.StatusNotFound, "https://vortex.dev/errors/not-found"},
		{http.StatusUnprocessableEntity, "https://vortex.dev/errors/validation-error"},
		{http.StatusBadGateway, "https://vortex.dev/errors/upstream-error"},
		{http.StatusServiceUnavailable, "https://vortex.dev/errors/service-unavailable"},
		{http.StatusTeapot, "https://vortex.dev/errors/unknown"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteProblem(w, httptest.NewRequest(http.MethodGet, "/x", nil), tt.status, "detail")
			if p := decodeProblem(t, w); p.Type != tt.typeURI {
				t.Errorf("type = %q, want %q", p.Type, tt.typeURI)
			}
		})
	}
}

func TestWriteProblemWithErrors_422(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/time-entries?from=bad", nil)

	errs := []validation.ValidationError{{Field: "from", Message: "must be a date in YYYY-MM-DD format"}}
	WriteProblemWithErrors(w, r, "Query contains invalid parameters", errs)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if p.Type != "https://vortex.dev/errors/validation-error" {
		t.Errorf("type = %q", p.Type)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "from" {
		t.Errorf("errors = %+v, want one error on from", p.Errors)
	}
}

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound, "Resource not found"},
		{"wrapped not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, "Resource not found"},
		{"archive not configured", archive.ErrNotConfigured, http.StatusNotFound, "Archive storage not configured"},
		{"missing credentials", sheets.ErrMissingCredentials, http.StatusServiceUnavailable, "Google credentials not configured"},
		{"unknown", errors.New("pq: connection refused on 10.0.0.3"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			MapStoreError(w, httptest.NewRequest(http.MethodGet, "/api/v1/time-entries/1", nil), tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if p := decodeProblem(t, w); p.Detail != tt.detail {
				t.Errorf("detail = %q, want %q", p.Detail, tt.detail)
			}
		})
	}
}
