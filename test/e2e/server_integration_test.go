package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hyperengineering/vortex/internal/api"
	"github.com/hyperengineering/vortex/internal/ingest"
	"github.com/hyperengineering/vortex/internal/normalize"
	"github.com/hyperengineering/vortex/internal/sheets"
	"github.com/hyperengineering/vortex/internal/store"
	"github.com/hyperengineering/vortex/internal/types"
)

const (
	integrationAPIKey = "integration-key"
	timeRange         = "Time!A2:AA"
	planningRange     = "Planificacion!A2:I"
)

// sheetFixture serves rows per range and can be swapped between syncs.
type sheetFixture struct {
	mu   sync.Mutex
	rows map[string][]sheets.Row
}

func (f *sheetFixture) ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([]sheets.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[a1Range], nil
}

func (f *sheetFixture) set(rng string, rows ...sheets.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[rng] = rows
}

func row(layout normalize.Layout, cols map[string]any) sheets.Row {
	r := make(sheets.Row, layout.Width())
	for col, v := range cols {
		r[layout.Index(col)] = v
	}
	return r
}

// startIntegrationServer wires a real SQLite store and syncer behind the
// full router.
func startIntegrationServer(t *testing.T, fixture *sheetFixture) *httptest.Server {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "vortex.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	syncer := ingest.NewSyncer(fixture, st, nil, ingest.Options{
		SpreadsheetID: "sheet-it",
		TimeRange:     timeRange,
		PlanningRange: planningRange,
	})
	h := api.NewHandler(st, syncer, fixture, nil, integrationAPIKey, "test")
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func call[T any](t *testing.T, srv *httptest.Server, method, path string, wantStatus int) T {
	t.Helper()
	req, _ := http.NewRequest(method, srv.URL+path, nil)
	req.Header.Set("Authorization", "Bearer "+integrationAPIKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return v
}

func TestIntegration_SyncThenQuery(t *testing.T) {
	// Given: a sheet with two time rows, one bad row and one planning row
	fixture := &sheetFixture{rows: map[string][]sheets.Row{}}
	fixture.set(timeRange,
		row(normalize.TimeLayout, map[string]any{"id": float64(101), "date": float64(45965), "hours": "3", "who": "Ana Ruiz"}),
		row(normalize.TimeLayout, map[string]any{"id": "102", "date": "04/11/2025", "project": "Vortex"}),
		row(normalize.TimeLayout, map[string]any{"id": "not-a-number"}),
	)
	fixture.set(planningRange,
		row(normalize.PlanningLayout, map[string]any{"period": "202511", "first_name": "Ana", "activity": "Dev", "planned_hours": "40"}),
	)
	srv := startIntegrationServer(t, fixture)

	// When: a sync is triggered over HTTP
	result := call[types.SyncResult](t, srv, http.MethodPost, "/api/v1/sync", http.StatusOK)

	// Then: valid rows are counted and the run is recorded
	if result.Message != ingest.MessageSucceeded {
		t.Errorf("message = %q", result.Message)
	}
	if result.TimeEntriesCount != 2 || result.PlanningEntriesCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", result.TimeEntriesCount, result.PlanningEntriesCount)
	}

	entries := call[types.TimeEntriesResponse](t, srv, http.MethodGet,
		"/api/v1/time-entries?from=2025-11-04&to=2025-11-04", http.StatusOK)
	if entries.Count != 2 {
		t.Errorf("time entries on 2025-11-04 = %d, want 2", entries.Count)
	}

	entry := call[types.TimeEntry](t, srv, http.MethodGet, "/api/v1/time-entries/101", http.StatusOK)
	if entry.Hours != 3 || entry.UserFullName == nil || *entry.UserFullName != "Ana Ruiz" {
		t.Errorf("entry 101 = %+v", entry)
	}

	planning := call[types.PlanningEntriesResponse](t, srv, http.MethodGet,
		"/api/v1/planning-entries?period=202511", http.StatusOK)
	if planning.Count != 1 || planning.Entries[0].PlannedHours != 40 {
		t.Errorf("planning = %+v", planning)
	}

	runs := call[types.SyncRunsResponse](t, srv, http.MethodGet, "/api/v1/sync/runs", http.StatusOK)
	if len(runs.Runs) != 1 || runs.Runs[0].ID != result.RunID || runs.Runs[0].Status != types.SyncStatusSuccess {
		t.Errorf("runs = %+v", runs.Runs)
	}
}

func TestIntegration_ResyncUpdatesInPlace(t *testing.T) {
	// Given: an initial sync
	fixture := &sheetFixture{rows: map[string][]sheets.Row{}}
	fixture.set(timeRange, row(normalize.TimeLayout, map[string]any{"id": "7", "hours": "1"}))
	fixture.set(planningRange, row(normalize.PlanningLayout, map[string]any{"period": "202511", "first_name": "Ana", "activity": "Dev", "planned_hours": "10"}))
	srv := startIntegrationServer(t, fixture)
	call[types.SyncResult](t, srv, http.MethodPost, "/api/v1/sync", http.StatusOK)

	// When: the same keys come back with new values
	fixture.set(timeRange, row(normalize.TimeLayout, map[string]any{"id": "7", "hours": "5"}))
	fixture.set(planningRange, row(normalize.PlanningLayout, map[string]any{"period": "202511", "first_name": "Ana", "activity": "Dev", "planned_hours": "20"}))
	call[types.SyncResult](t, srv, http.MethodPost, "/api/v1/sync", http.StatusOK)

	// Then: rows are updated, not duplicated
	entries := call[types.TimeEntriesResponse](t, srv, http.MethodGet, "/api/v1/time-entries", http.StatusOK)
	if entries.Count != 1 || entries.Entries[0].Hours != 5 {
		t.Errorf("time entries = %+v", entries)
	}
	planning := call[types.PlanningEntriesResponse](t, srv, http.MethodGet, "/api/v1/planning-entries", http.StatusOK)
	if planning.Count != 1 || planning.Entries[0].PlannedHours != 20 {
		t.Errorf("planning = %+v", planning)
	}

	runs := call[types.SyncRunsResponse](t, srv, http.MethodGet, "/api/v1/sync/runs", http.StatusOK)
	if len(runs.Runs) != 2 {
		t.Errorf("runs = %d, want 2", len(runs.Runs))
	}
}

func TestIntegration_EmptySheetReportsNoData(t *testing.T) {
	fixture := &sheetFixture{rows: map[string][]sheets.Row{}}
	srv := startIntegrationServer(t, fixture)

	result := call[types.SyncResult](t, srv, http.MethodPost, "/api/v1/sync", http.StatusOK)

	if result.Message != ingest.MessageNoData {
		t.Errorf("message = %q, want %q", result.Message, ingest.MessageNoData)
	}
	if result.TimeEntriesCount != 0 || result.PlanningEntriesCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", result.TimeEntriesCount, result.PlanningEntriesCount)
	}
}
