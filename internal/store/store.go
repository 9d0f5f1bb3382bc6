package store

import (
	"context"

	"github.com/hyperengineering/vortex/internal/types"
)

// Store defines the interface contract for the relational destination of
// normalized spreadsheet records.
//
// Upsert methods are atomic per call: either every entry in the batch is
// written or none is. Within a batch, a later entry with the same key
// overwrites an earlier one.
type Store interface {
	UpsertTimeEntries(ctx context.Context, entries []types.TimeEntry) (int, error)
	UpsertPlanningEntries(ctx context.Context, entries []types.PlanningEntry) (int, error)
	GetTimeEntry(ctx context.Context, id int64) (*types.TimeEntry, error)
	ListTimeEntries(ctx context.Context, filter types.TimeEntryFilter) ([]types.TimeEntry, error)
	ListPlanningEntries(ctx context.Context, period int64) ([]types.PlanningEntry, error)
	RecordSyncRun(ctx context.Context, run types.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]types.SyncRun, error)
	GetStats(ctx context.Context) (*types.StoreStats, error)
	Driver() string
	Close() error
}
