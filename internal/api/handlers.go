package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/vortex/internal/archive"
	"github.com/hyperengineering/vortex/internal/sheets"
	"github.com/hyperengineering/vortex/internal/store"
	"github.com/hyperengineering/vortex/internal/types"
	"github.com/hyperengineering/vortex/internal/validation"
)

// DefaultPreviewRange is used by ReadSheet when no range is given.
const DefaultPreviewRange = "Sheet1!A1:B10"

// Handler implements the API handlers
type Handler struct {
	store    store.Store
	syncer   Syncer
	reader   sheets.Reader
	archiver archive.Archiver
	apiKey   string
	version  string
}

// NewHandler creates a new Handler
func NewHandler(s store.Store, syncer Syncer, reader sheets.Reader, archiver archive.Archiver, apiKey, version string) *Handler {
	if archiver == nil {
		archiver = &archive.NoopArchiver{}
	}
	return &Handler{
		store:    s,
		syncer:   syncer,
		reader:   reader,
		archiver: archiver,
		apiKey:   apiKey,
		version:  version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health stats failed", "component", "api", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:             "healthy",
		Version:            h.version,
		Driver:             h.store.Driver(),
		TimeEntryCount:     stats.TimeEntryCount,
		PlanningEntryCount: stats.PlanningEntryCount,
		LastSyncAt:         stats.LastSyncAt,
	})
}

// ReadSheet handles GET /api/v1/sheets/read
func (h *Handler) ReadSheet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		WriteProblem(w, r, http.StatusBadRequest, "Missing spreadsheetId parameter")
		return
	}
	rng := q.Get("range")
	if rng == "" {
		rng = DefaultPreviewRange
	}
	if errs := validation.ValidateSheetReadQuery(id, rng); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Query contains invalid parameters", errs)
		return
	}

	rows, err := h.reader.ReadRange(r.Context(), id, rng)
	if err != nil {
		slog.Error("sheet read failed",
			"component", "api",
			"action", "read_sheet",
			"spreadsheet_id", id,
			"range", rng,
			"error", err,
		)
		switch {
		case errors.Is(err, sheets.ErrMissingCredentials):
			MapStoreError(w, r, err)
		case errors.Is(err, sheets.ErrTabNotFound):
			WriteProblem(w, r, http.StatusNotFound, "Sheet tab not found")
		default:
			WriteProblem(w, r, http.StatusBadGateway, "Failed to read spreadsheet")
		}
		return
	}

	data := make([][]any, 0, len(rows))
	for _, row := range rows {
		data = append(data, row)
	}
	writeJSON(w, http.StatusOK, types.SheetReadResponse{Data: data})
}

// ListTimeEntries handles GET /api/v1/time-entries
func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, limit := q.Get("from"), q.Get("to"), q.Get("limit")
	if errs := validation.ValidateTimeEntriesQuery(from, to, limit); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Query contains invalid parameters", errs)
		return
	}

	var filter types.TimeEntryFilter
	if from != "" {
		t, _ := time.Parse(validation.DateLayout, from)
		filter.From = &t
	}
	if to != "" {
		// to is inclusive; the store bound is exclusive
		t, _ := time.Parse(validation.DateLayout, to)
		t = t.AddDate(0, 0, 1)
		filter.To = &t
	}
	if limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}

	entries, err := h.store.ListTimeEntries(r.Context(), filter)
	if err != nil {
		slog.Error("list time entries failed", "component", "api", "error", err)
		MapStoreError(w, r, err)
		return
	}
	if entries == nil {
		entries = []types.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, types.TimeEntriesResponse{Entries: entries, Count: len(entries)})
}

// GetTimeEntry handles GET /api/v1/time-entries/{id}
func (h *Handler) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteProblem(w, r, http.StatusBadRequest, "Time entry id must be a positive integer")
		return
	}

	entry, err := h.store.GetTimeEntry(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("get time entry failed", "component", "api", "id", id, "error", err)
		}
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ListPlanningEntries handles GET /api/v1/planning-entries
func (h *Handler) ListPlanningEntries(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if errs := validation.ValidatePlanningQuery(period); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Query contains invalid parameters", errs)
		return
	}

	var p int64
	if period != "" {
		p, _ = strconv.ParseInt(period, 10, 64)
	}

	entries, err := h.store.ListPlanningEntries(r.Context(), p)
	if err != nil {
		slog.Error("list planning entries failed", "component", "api", "error", err)
		MapStoreError(w, r, err)
		return
	}
	if entries == nil {
		entries = []types.PlanningEntry{}
	}
	writeJSON(w, http.StatusOK, types.PlanningEntriesResponse{Entries: entries, Count: len(entries)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}
