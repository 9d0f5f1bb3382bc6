package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperengineering/vortex/internal/normalize"
	"github.com/hyperengineering/vortex/internal/types"
)

// Dialect selects placeholder style and value encoding for generated SQL.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// placeholder returns the i-th (1-based) bind parameter.
func (d Dialect) placeholder(i int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// encodeTime converts a nullable instant into a bind value. SQLite keeps
// timestamps as ISO-8601 text; Postgres takes timestamptz values.
func (d Dialect) encodeTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	if d == DialectPostgres {
		return t.UTC()
	}
	return t.UTC().Format(normalize.ISOLayout)
}

// TableSchema declares a destination table for upserts.
// Columns are listed in bind order; ConflictKey names the natural key.
type TableSchema struct {
	Name        string
	Columns     []string
	ConflictKey []string
}

// UpsertSQL builds INSERT ... ON CONFLICT (key) DO UPDATE SET for every
// non-key column, so a matching row is overwritten in place.
func (s TableSchema) UpsertSQL(d Dialect) string {
	placeholders := make([]string, len(s.Columns))
	updates := make([]string, 0, len(s.Columns))
	key := make(map[string]bool, len(s.ConflictKey))
	for _, k := range s.ConflictKey {
		key[k] = true
	}
	for i, col := range s.Columns {
		placeholders[i] = d.placeholder(i + 1)
		if !key[col] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		s.Name,
		strings.Join(s.Columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(s.ConflictKey, ", "),
		strings.Join(updates, ", "),
	)
}

// SelectList returns the comma separated column list.
func (s TableSchema) SelectList() string {
	return strings.Join(s.Columns, ", ")
}

// TimeEntriesSchema is the time_entries table, keyed by id.
var TimeEntriesSchema = TableSchema{
	Name: "time_entries",
	Columns: []string{
		"id", "date", "start_time", "end_time",
		"project_name", "user_full_name", "description", "project_category",
		"company", "task_list", "task_name", "parent_task",
		"is_sub_task", "is_billable", "invoice_number",
		"hours", "minutes", "decimal_hours",
		"estimated_time", "estimated_hours", "estimated_minutes",
		"tags", "task_tags", "first_name", "last_name",
		"external_user_id", "external_task_id", "synced_at",
	},
	ConflictKey: []string{"id"},
}

// PlanningEntriesSchema is the planning_entries table, keyed by
// (period, first_name, activity).
var PlanningEntriesSchema = TableSchema{
	Name: "planning_entries",
	Columns: []string{
		"period", "month_name", "first_name", "capacity_hours",
		"activity", "priority", "planned_percentage", "planned_hours",
		"synced_at",
	},
	ConflictKey: []string{"period", "first_name", "activity"},
}

// SyncRunsSchema is the sync_runs audit table.
var SyncRunsSchema = TableSchema{
	Name: "sync_runs",
	Columns: []string{
		"id", "triggered_by", "status",
		"time_entries_count", "planning_entries_count",
		"error", "started_at", "finished_at",
	},
	ConflictKey: []string{"id"},
}

// timeEntryValues returns e's bind values in TimeEntriesSchema order.
func timeEntryValues(d Dialect, e types.TimeEntry, syncedAt time.Time) []any {
	return []any{
		e.ID, d.encodeTime(e.Date), d.encodeTime(e.StartTime), d.encodeTime(e.EndTime),
		e.ProjectName, e.UserFullName, e.Description, e.ProjectCategory,
		e.Company, e.TaskList, e.TaskName, e.ParentTask,
		e.IsSubTask, e.IsBillable, e.InvoiceNumber,
		e.Hours, e.Minutes, e.DecimalHours,
		e.EstimatedTime, e.EstimatedHours, e.EstimatedMinutes,
		e.Tags, e.TaskTags, e.FirstName, e.LastName,
		e.ExternalUserID, e.ExternalTaskID, d.encodeTime(&syncedAt),
	}
}

// planningEntryValues returns e's bind values in PlanningEntriesSchema order.
func planningEntryValues(d Dialect, e types.PlanningEntry, syncedAt time.Time) []any {
	return []any{
		e.Period, e.MonthName, e.FirstName, e.CapacityHours,
		e.Activity, e.Priority, e.PlannedPercentage, e.PlannedHours,
		d.encodeTime(&syncedAt),
	}
}

// syncRunValues returns run's bind values in SyncRunsSchema order.
func syncRunValues(d Dialect, run types.SyncRun) []any {
	return []any{
		run.ID, string(run.Trigger), string(run.Status),
		run.TimeEntriesCount, run.PlanningEntriesCount,
		run.Error, d.encodeTime(&run.StartedAt), d.encodeTime(&run.FinishedAt),
	}
}

// scanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type scanner interface {
	Scan(dest ...any) error
}

// timeDest wraps a nullable time destination for the dialect's driver.
type timeDest func(dst **time.Time) any

func scanTimeEntry(row scanner, wrap timeDest) (types.TimeEntry, error) {
	var e types.TimeEntry
	err := row.Scan(
		&e.ID, wrap(&e.Date), wrap(&e.StartTime), wrap(&e.EndTime),
		&e.ProjectName, &e.UserFullName, &e.Description, &e.ProjectCategory,
		&e.Company, &e.TaskList, &e.TaskName, &e.ParentTask,
		&e.IsSubTask, &e.IsBillable, &e.InvoiceNumber,
		&e.Hours, &e.Minutes, &e.DecimalHours,
		&e.EstimatedTime, &e.EstimatedHours, &e.EstimatedMinutes,
		&e.Tags, &e.TaskTags, &e.FirstName, &e.LastName,
		&e.ExternalUserID, &e.ExternalTaskID, wrap(&e.SyncedAt),
	)
	return e, err
}

func scanPlanningEntry(row scanner, wrap timeDest) (types.PlanningEntry, error) {
	var e types.PlanningEntry
	err := row.Scan(
		&e.Period, &e.MonthName, &e.FirstName, &e.CapacityHours,
		&e.Activity, &e.Priority, &e.PlannedPercentage, &e.PlannedHours,
		wrap(&e.SyncedAt),
	)
	return e, err
}

func scanSyncRun(row scanner, wrap timeDest) (types.SyncRun, error) {
	var run types.SyncRun
	var trigger, status string
	var started, finished *time.Time
	err := row.Scan(
		&run.ID, &trigger, &status,
		&run.TimeEntriesCount, &run.PlanningEntriesCount,
		&run.Error, wrap(&started), wrap(&finished),
	)
	if err != nil {
		return types.SyncRun{}, err
	}
	run.Trigger = types.SyncTrigger(trigger)
	run.Status = types.SyncStatus(status)
	if started != nil {
		run.StartedAt = *started
	}
	if finished != nil {
		run.FinishedAt = *finished
	}
	return run, nil
}

// timeEntryQuery builds the filtered listing query for time entries.
func timeEntryQuery(d Dialect, f types.TimeEntryFilter) (string, []any) {
	var where []string
	var args []any
	if f.From != nil {
		args = append(args, d.encodeTime(f.From))
		where = append(where, "date >= "+d.placeholder(len(args)))
	}
	if f.To != nil {
		args = append(args, d.encodeTime(f.To))
		where = append(where, "date < "+d.placeholder(len(args)))
	}

	q := "SELECT " + TimeEntriesSchema.SelectList() + " FROM time_entries"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, clampLimit(f.Limit))
	q += " ORDER BY date, id LIMIT " + d.placeholder(len(args))
	return q, args
}

// planningEntryQuery builds the listing query; period 0 lists every period.
func planningEntryQuery(d Dialect, period int64) (string, []any) {
	q := "SELECT " + PlanningEntriesSchema.SelectList() + " FROM planning_entries"
	var args []any
	if period != 0 {
		args = append(args, period)
		q += " WHERE period = " + d.placeholder(1)
	}
	q += " ORDER BY period, first_name, activity"
	return q, args
}

const (
	defaultListLimit = 500
	maxListLimit     = 5000
)

func clampLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
