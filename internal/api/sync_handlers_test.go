package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hyperengineering/vortex/internal/archive"
	"github.com/hyperengineering/vortex/internal/ingest"
	"github.com/hyperengineering/vortex/internal/types"
)

func TestSync_Success(t *testing.T) {
	h, d := newTestHandler()
	d.syncer.result = &types.SyncResult{
		Message:              ingest.MessageSucceeded,
		TimeEntriesCount:     3,
		PlanningEntriesCount: 2,
		RunID:                "01JBX0000000000000000000AA",
	}

	w := serve(t, h, http.MethodPost, "/api/v1/sync")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if d.syncer.calls != 1 || d.syncer.lastTrigger != types.TriggerHTTP {
		t.Errorf("calls = %d, trigger = %q", d.syncer.calls, d.syncer.lastTrigger)
	}
	resp := decodeBody[types.SyncResult](t, w)
	if resp != *d.syncer.result {
		t.Errorf("response = %+v, want %+v", resp, *d.syncer.result)
	}
}

func TestSync_NoData(t *testing.T) {
	h, d := newTestHandler()
	d.syncer.result = &types.SyncResult{Message: ingest.MessageNoData}

	w := serve(t, h, http.MethodPost, "/api/v1/sync")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	want := "{\"message\":\"" + ingest.MessageNoData + "\",\"time_entries_count\":0,\"planning_entries_count\":0}\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestSync_FailureUsesErrorShape(t *testing.T) {
	h, d := newTestHandler()
	d.syncer.err = &ingest.RunError{Stage: ingest.StageUpsert, Tab: "Time", Err: errors.New("duplicate key")}

	w := serve(t, h, http.MethodPost, "/api/v1/sync")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	resp := decodeBody[types.SyncErrorResponse](t, w)
	if resp.Error != d.syncer.err.Error() {
		t.Errorf("error = %q, want %q", resp.Error, d.syncer.err.Error())
	}
}

func TestSync_GetNotAllowed(t *testing.T) {
	h, d := newTestHandler()

	w := serve(t, h, http.MethodGet, "/api/v1/sync")

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if d.syncer.calls != 0 {
		t.Error("syncer should not run for GET")
	}
}

func TestListSyncRuns(t *testing.T) {
	h, d := newTestHandler()
	d.store.runs = []types.SyncRun{{ID: "01JBX0000000000000000000AA", Status: types.SyncStatusSuccess}}

	w := serve(t, h, http.MethodGet, "/api/v1/sync/runs")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if d.store.lastRunsLimit != DefaultRunsLimit {
		t.Errorf("limit = %d, want %d", d.store.lastRunsLimit, DefaultRunsLimit)
	}
	resp := decodeBody[types.SyncRunsResponse](t, w)
	if len(resp.Runs) != 1 || resp.Runs[0].Status != types.SyncStatusSuccess {
		t.Errorf("runs = %+v", resp.Runs)
	}
}

func TestListSyncRuns_Limit(t *testing.T) {
	h, d := newTestHandler()

	if w := serve(t, h, http.MethodGet, "/api/v1/sync/runs?limit=5"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if d.store.lastRunsLimit != 5 {
		t.Errorf("limit = %d, want 5", d.store.lastRunsLimit)
	}
	if w := serve(t, h, http.MethodGet, "/api/v1/sync/runs?limit=-1"); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestRunArchive(t *testing.T) {
	h, d := newTestHandler()
	expires := time.Date(2025, 11, 4, 12, 15, 0, 0, time.UTC)
	d.archiver.url = "https://s3.example.com/vortex/sync-runs/01JBX0000000000000000000AA.json?sig=x"
	d.archiver.expiresAt = expires

	w := serve(t, h, http.MethodGet, "/api/v1/sync/runs/01JBX0000000000000000000AA/archive")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	resp := decodeBody[types.ArchiveURLResponse](t, w)
	if resp.RunID != "01JBX0000000000000000000AA" || resp.URL != d.archiver.url || !resp.ExpiresAt.Equal(expires) {
		t.Errorf("response = %+v", resp)
	}
}

func TestRunArchive_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status int
	}{
		{"invalid id", "not-a-ulid", nil, http.StatusUnprocessableEntity},
		{"not configured", "01JBX0000000000000000000AA", archive.ErrNotConfigured, http.StatusNotFound},
		{"presign failure", "01JBX0000000000000000000AA", errors.New("bad credentials"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newTestHandler()
			d.archiver.err = tt.err

			w := serve(t, h, http.MethodGet, "/api/v1/sync/runs/"+tt.id+"/archive")

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}
