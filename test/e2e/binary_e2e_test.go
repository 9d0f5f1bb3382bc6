//go:build e2e

package e2e

import (
	"net/http"
	"strings"
	"testing"

	"github.com/hyperengineering/vortex/internal/types"
)

func TestBinary_HealthIsPublic(t *testing.T) {
	s := startVortex(t)

	status, body := s.do(t, http.MethodGet, "/api/v1/health", "")
	if status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}
	h := decodeJSON[types.HealthResponse](t, body)
	if h.Status != "healthy" || h.Driver != "sqlite" {
		t.Errorf("health = %+v", h)
	}
}

func TestBinary_ProtectedRoutesRequireKey(t *testing.T) {
	s := startVortex(t)

	for _, path := range []string{"/api/v1/sync/runs", "/api/v1/time-entries", "/api/v1/planning-entries"} {
		if status, _ := s.do(t, http.MethodGet, path, ""); status != http.StatusUnauthorized {
			t.Errorf("%s without key: status = %d, want 401", path, status)
		}
		if status, _ := s.do(t, http.MethodGet, path, "wrong-key"); status != http.StatusUnauthorized {
			t.Errorf("%s with wrong key: status = %d, want 401", path, status)
		}
		if status, _ := s.do(t, http.MethodGet, path, s.apiKey); status != http.StatusOK {
			t.Errorf("%s with key: status = %d, want 200", path, status)
		}
	}
}

func TestBinary_SyncWithoutSpreadsheetID(t *testing.T) {
	s := startVortex(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/sync", s.apiKey)
	if status != http.StatusInternalServerError {
		t.Fatalf("sync status = %d, want 500", status)
	}
	resp := decodeJSON[types.SyncErrorResponse](t, body)
	if !strings.Contains(resp.Error, "GOOGLE_SHEET_ID_TIME_ENTRIES") {
		t.Errorf("error = %q, want missing spreadsheet id", resp.Error)
	}

	// The store was never reached, so no run is recorded
	_, body = s.do(t, http.MethodGet, "/api/v1/sync/runs", s.apiKey)
	if runs := decodeJSON[types.SyncRunsResponse](t, body); len(runs.Runs) != 0 {
		t.Errorf("runs = %+v, want none", runs.Runs)
	}
}

func TestBinary_ArchiveNotConfigured(t *testing.T) {
	s := startVortex(t)

	status, _ := s.do(t, http.MethodGet, "/api/v1/sync/runs/01JBX0000000000000000000AA/archive", s.apiKey)
	if status != http.StatusNotFound {
		t.Errorf("archive status = %d, want 404", status)
	}
}

func TestBinary_RestartKeepsSchema(t *testing.T) {
	s := startVortex(t)
	s2 := s.restartOnSameData(t)

	// Migrations are idempotent across restarts
	if status, _ := s2.do(t, http.MethodGet, "/api/v1/time-entries", s2.apiKey); status != http.StatusOK {
		t.Errorf("time-entries after restart: status = %d", status)
	}
}
