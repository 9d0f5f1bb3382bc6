package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/vortex/internal/archive"
	"github.com/hyperengineering/vortex/internal/types"
	"github.com/hyperengineering/vortex/internal/validation"
)

// DefaultRunsLimit is the number of sync runs listed when no limit is given.
const DefaultRunsLimit = 20

// Syncer runs one spreadsheet-to-store synchronization.
type Syncer interface {
	Run(ctx context.Context, trigger types.SyncTrigger) (*types.SyncResult, error)
}

// Sync handles POST /api/v1/sync
//
// Failures are answered with {"error": message} rather than Problem Details
// so existing callers of the sync endpoint keep working.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.syncer.Run(r.Context(), types.TriggerHTTP)
	if err != nil {
		slog.Error("sync request failed",
			"component", "api",
			"action", "sync",
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, types.SyncErrorResponse{Error: err.Error()})
		return
	}

	slog.Info("sync request completed",
		"component", "api",
		"action", "sync",
		"run_id", result.RunID,
		"time_entries", result.TimeEntriesCount,
		"planning_entries", result.PlanningEntriesCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, result)
}

// ListSyncRuns handles GET /api/v1/sync/runs
func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := r.URL.Query().Get("limit")
	if errs := validation.ValidateRunsQuery(limit); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Query contains invalid parameters", errs)
		return
	}

	n := DefaultRunsLimit
	if limit != "" {
		n, _ = strconv.Atoi(limit)
	}

	runs, err := h.store.ListSyncRuns(r.Context(), n)
	if err != nil {
		slog.Error("list sync runs failed", "component", "api", "error", err)
		MapStoreError(w, r, err)
		return
	}
	if runs == nil {
		runs = []types.SyncRun{}
	}
	writeJSON(w, http.StatusOK, types.SyncRunsResponse{Runs: runs})
}

// RunArchive handles GET /api/v1/sync/runs/{id}/archive
func (h *Handler) RunArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if verr := validation.ValidateULID("id", id); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid run id", []validation.ValidationError{*verr})
		return
	}

	url, expiresAt, err := h.archiver.PresignedURL(r.Context(), id)
	if err != nil {
		if !errors.Is(err, archive.ErrNotConfigured) {
			slog.Error("presign archive failed", "component", "api", "run_id", id, "error", err)
		}
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ArchiveURLResponse{RunID: id, URL: url, ExpiresAt: expiresAt})
}
