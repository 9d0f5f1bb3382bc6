package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/vortex/internal/config"
	"github.com/hyperengineering/vortex/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded store used for local runs and tests.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db, "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Driver returns the configured driver name.
func (s *SQLiteStore) Driver() string { return config.DriverSQLite }

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertTimeEntries writes entries keyed by id in a single transaction.
func (s *SQLiteStore) UpsertTimeEntries(ctx context.Context, entries []types.TimeEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	return s.upsertBatch(ctx, TimeEntriesSchema, len(entries), func(i int) []any {
		return timeEntryValues(DialectSQLite, entries[i], now)
	})
}

// UpsertPlanningEntries writes entries keyed by (period, first_name, activity)
// in a single transaction.
func (s *SQLiteStore) UpsertPlanningEntries(ctx context.Context, entries []types.PlanningEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	return s.upsertBatch(ctx, PlanningEntriesSchema, len(entries), func(i int) []any {
		return planningEntryValues(DialectSQLite, entries[i], now)
	})
}

// upsertBatch executes one prepared upsert per row inside a transaction.
func (s *SQLiteStore) upsertBatch(ctx context.Context, schema TableSchema, n int, values func(int) []any) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, schema.UpsertSQL(DialectSQLite))
	if err != nil {
		return 0, fmt.Errorf("prepare upsert %s: %w", schema.Name, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, values(i)...); err != nil {
			return 0, fmt.Errorf("upsert %s row %d: %w", schema.Name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return n, nil
}

// GetTimeEntry retrieves a single time entry by its external id.
func (s *SQLiteStore) GetTimeEntry(ctx context.Context, id int64) (*types.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+TimeEntriesSchema.SelectList()+" FROM time_entries WHERE id = ?", id)
	e, err := scanTimeEntry(row, sqliteTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return &e, nil
}

// ListTimeEntries returns entries ordered by date then id.
func (s *SQLiteStore) ListTimeEntries(ctx context.Context, filter types.TimeEntryFilter) ([]types.TimeEntry, error) {
	q, args := timeEntryQuery(DialectSQLite, filter)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	entries := []types.TimeEntry{}
	for rows.Next() {
		e, err := scanTimeEntry(rows, sqliteTime)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListPlanningEntries returns entries for a period, or all when period is 0.
func (s *SQLiteStore) ListPlanningEntries(ctx context.Context, period int64) ([]types.PlanningEntry, error) {
	q, args := planningEntryQuery(DialectSQLite, period)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list planning entries: %w", err)
	}
	defer rows.Close()

	entries := []types.PlanningEntry{}
	for rows.Next() {
		e, err := scanPlanningEntry(rows, sqliteTime)
		if err != nil {
			return nil, fmt.Errorf("scan planning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordSyncRun stores the audit record of a run.
func (s *SQLiteStore) RecordSyncRun(ctx context.Context, run types.SyncRun) error {
	_, err := s.db.ExecContext(ctx, SyncRunsSchema.UpsertSQL(DialectSQLite), syncRunValues(DialectSQLite, run)...)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the most recent runs first.
func (s *SQLiteStore) ListSyncRuns(ctx context.Context, limit int) ([]types.SyncRun, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+SyncRunsSchema.SelectList()+" FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?",
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []types.SyncRun{}
	for rows.Next() {
		run, err := scanSyncRun(rows, sqliteTime)
		if err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM time_entries").Scan(&stats.TimeEntryCount); err != nil {
		return nil, fmt.Errorf("count time entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM planning_entries").Scan(&stats.PlanningEntryCount); err != nil {
		return nil, fmt.Errorf("count planning entries: %w", err)
	}
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(finished_at) FROM sync_runs WHERE status = ?", string(types.SyncStatusSuccess),
	).Scan(sqliteTime(&stats.LastSyncAt))
	if err != nil {
		return nil, fmt.Errorf("last sync: %w", err)
	}
	return &stats, nil
}

// isoTime scans ISO-8601 text into a nullable instant.
type isoTime struct {
	dst **time.Time
}

func sqliteTime(dst **time.Time) any { return isoTime{dst: dst} }

func (t isoTime) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*t.dst = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		u := v.UTC()
		*t.dst = &u
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	parsed = parsed.UTC()
	*t.dst = &parsed
	return nil
}
