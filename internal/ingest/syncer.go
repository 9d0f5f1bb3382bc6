// Package ingest runs the spreadsheet-to-store sync: read each configured
// tab, normalize its rows and upsert the survivors by natural key.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/vortex/internal/archive"
	"github.com/hyperengineering/vortex/internal/normalize"
	"github.com/hyperengineering/vortex/internal/sheets"
	"github.com/hyperengineering/vortex/internal/types"
)

// Result messages.
const (
	MessageNoData    = "No data found in sheet"
	MessageNoValid   = "No valid entries to sync"
	MessageSucceeded = "Sync successful"
)

// SettingSpreadsheetID and SettingCredentials name the settings reported in
// a ConfigError.
const (
	SettingSpreadsheetID = "GOOGLE_SHEET_ID_TIME_ENTRIES"
	SettingCredentials   = "Google service account credentials"
)

// recordTimeout bounds the best-effort bookkeeping after a run.
const recordTimeout = 10 * time.Second

// Store is the subset of store.Store the syncer writes to.
type Store interface {
	UpsertTimeEntries(ctx context.Context, entries []types.TimeEntry) (int, error)
	UpsertPlanningEntries(ctx context.Context, entries []types.PlanningEntry) (int, error)
	RecordSyncRun(ctx context.Context, run types.SyncRun) error
}

// Options configures what a run reads.
type Options struct {
	SpreadsheetID string
	TimeRange     string
	PlanningRange string
	// Location is used for timestamp strings without a zone. Nil means UTC.
	Location *time.Location
}

// Syncer executes sync runs. It holds no state between runs and provides
// no mutual exclusion; overlapping runs converge through upsert semantics.
type Syncer struct {
	reader   sheets.Reader
	store    Store
	archiver archive.Archiver
	opts     Options
	now      func() time.Time
}

// NewSyncer creates a Syncer. A nil archiver disables archiving.
func NewSyncer(reader sheets.Reader, store Store, archiver archive.Archiver, opts Options) *Syncer {
	if archiver == nil {
		archiver = &archive.NoopArchiver{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Syncer{
		reader:   reader,
		store:    store,
		archiver: archiver,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// tabResult is the outcome of processing one tab.
type tabResult[T any] struct {
	rowsRead int
	entries  []T
	written  int
	upserted bool
}

// Run performs one sync: the Time tab first, then the Planning tab.
// Any read or upsert failure aborts the run with a *RunError.
func (s *Syncer) Run(ctx context.Context, trigger types.SyncTrigger) (*types.SyncResult, error) {
	if s.opts.SpreadsheetID == "" {
		return nil, &ConfigError{Setting: SettingSpreadsheetID}
	}

	started := s.now()
	runID := ulid.Make().String()
	logger := slog.With("component", "ingest", "run_id", runID, "trigger", string(trigger))
	logger.Info("sync started", "action", "sync_start")

	timeTab, err := syncTab(ctx, s, logger, s.opts.TimeRange,
		func(rows [][]any, firstRow int) ([]types.TimeEntry, []normalize.Rejection) {
			return normalize.NormalizeTimeRows(rows, firstRow, s.opts.Location)
		},
		s.store.UpsertTimeEntries,
	)
	if err != nil {
		return nil, s.fail(logger, runID, trigger, started, timeTab.upserted, err)
	}

	planningTab, err := syncTab(ctx, s, logger, s.opts.PlanningRange,
		normalize.NormalizePlanningRows,
		s.store.UpsertPlanningEntries,
	)
	if err != nil {
		return nil, s.fail(logger, runID, trigger, started, timeTab.upserted || planningTab.upserted, err)
	}

	result := &types.SyncResult{
		TimeEntriesCount:     timeTab.written,
		PlanningEntriesCount: planningTab.written,
	}
	switch {
	case timeTab.rowsRead == 0 && planningTab.rowsRead == 0:
		result.Message = MessageNoData
	case len(timeTab.entries) == 0 && len(planningTab.entries) == 0:
		result.Message = MessageNoValid
	default:
		result.Message = MessageSucceeded
	}

	if timeTab.upserted || planningTab.upserted {
		result.RunID = runID
		s.record(logger, types.SyncRun{
			ID:                   runID,
			Trigger:              trigger,
			Status:               types.SyncStatusSuccess,
			TimeEntriesCount:     timeTab.written,
			PlanningEntriesCount: planningTab.written,
			StartedAt:            started,
			FinishedAt:           s.now(),
		})
		s.archive(ctx, logger, archive.Batch{
			RunID:           runID,
			Trigger:         trigger,
			StartedAt:       started,
			TimeEntries:     timeTab.entries,
			PlanningEntries: planningTab.entries,
		})
	}

	logger.Info("sync finished",
		"action", "sync_complete",
		"message", result.Message,
		"time_entries", result.TimeEntriesCount,
		"planning_entries", result.PlanningEntriesCount,
		"duration_ms", s.now().Sub(started).Milliseconds(),
	)
	return result, nil
}

// syncTab reads, normalizes and upserts one tab. The store is not contacted
// when the tab has no rows or no row survives normalization.
func syncTab[T any](
	ctx context.Context,
	s *Syncer,
	logger *slog.Logger,
	a1Range string,
	normalizeRows func(rows [][]any, firstRow int) ([]T, []normalize.Rejection),
	upsert func(context.Context, []T) (int, error),
) (tabResult[T], error) {
	var res tabResult[T]

	rng, err := sheets.ParseRange(a1Range)
	if err != nil {
		return res, &RunError{Stage: StageRead, Tab: a1Range, Err: err}
	}
	logger = logger.With("tab", rng.Tab)

	rows, err := s.reader.ReadRange(ctx, s.opts.SpreadsheetID, a1Range)
	if err != nil {
		if errors.Is(err, sheets.ErrMissingCredentials) {
			return res, &ConfigError{Setting: SettingCredentials, Err: err}
		}
		return res, &RunError{Stage: StageRead, Tab: rng.Tab, Err: err}
	}
	res.rowsRead = len(rows)
	if res.rowsRead == 0 {
		logger.Info("no rows in tab", "action", "tab_empty")
		return res, nil
	}

	entries, rejected := normalizeRows(rows, rng.StartRow)
	for _, r := range rejected {
		logger.Warn("row dropped", "action", "row_rejected", "row", r.Row, "reason", r.Reason)
	}
	res.entries = entries
	if len(entries) == 0 {
		logger.Warn("every row was rejected", "action", "tab_no_valid", "rows", res.rowsRead)
		return res, nil
	}

	res.upserted = true
	n, err := upsert(ctx, entries)
	if err != nil {
		return res, &RunError{Stage: StageUpsert, Tab: rng.Tab, Err: err}
	}
	res.written = n

	logger.Info("tab synced",
		"action", "tab_upserted",
		"rows", res.rowsRead,
		"written", n,
		"rejected", len(rejected),
	)
	return res, nil
}

// fail logs err and, when the store was contacted, records a failed run.
func (s *Syncer) fail(logger *slog.Logger, runID string, trigger types.SyncTrigger, started time.Time, reachedStore bool, err error) error {
	logger.Error("sync failed", "action", "sync_failed", "error", err)
	if reachedStore {
		msg := err.Error()
		s.record(logger, types.SyncRun{
			ID:         runID,
			Trigger:    trigger,
			Status:     types.SyncStatusFailed,
			Error:      &msg,
			StartedAt:  started,
			FinishedAt: s.now(),
		})
	}
	return err
}

// record stores the audit row. Failures are logged and never fail the run.
func (s *Syncer) record(logger *slog.Logger, run types.SyncRun) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := s.store.RecordSyncRun(ctx, run); err != nil {
		logger.Warn("failed to record sync run", "action", "record_run", "error", err)
	}
}

// archive hands the batch to the archiver. Failures are logged only.
func (s *Syncer) archive(ctx context.Context, logger *slog.Logger, batch archive.Batch) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.archiver.Archive(ctx, batch); err != nil {
		logger.Warn("failed to archive sync run", "action", "archive_run", "error", err)
	}
}
