package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperengineering/vortex/internal/config"
	"github.com/hyperengineering/vortex/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore is the hosted relational store, backed by a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to databaseURL, verifies the connection and
// applies pending migrations.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	err = RunMigrations(db, "postgres")
	db.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Driver returns the configured driver name.
func (s *PostgresStore) Driver() string { return config.DriverPostgres }

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// UpsertTimeEntries writes entries keyed by id in a single transaction.
func (s *PostgresStore) UpsertTimeEntries(ctx context.Context, entries []types.TimeEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	return s.upsertBatch(ctx, TimeEntriesSchema, len(entries), func(i int) []any {
		return timeEntryValues(DialectPostgres, entries[i], now)
	})
}

// UpsertPlanningEntries writes entries keyed by (period, first_name, activity)
// in a single transaction.
func (s *PostgresStore) UpsertPlanningEntries(ctx context.Context, entries []types.PlanningEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	return s.upsertBatch(ctx, PlanningEntriesSchema, len(entries), func(i int) []any {
		return planningEntryValues(DialectPostgres, entries[i], now)
	})
}

// upsertBatch queues one upsert per row and sends them as a single batch
// inside a transaction. Batched statements run in queue order.
func (s *PostgresStore) upsertBatch(ctx context.Context, schema TableSchema, n int, values func(int) []any) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := schema.UpsertSQL(DialectPostgres)
	batch := &pgx.Batch{}
	for i := 0; i < n; i++ {
		batch.Queue(query, values(i)...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("upsert %s row %d: %w", schema.Name, i, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return n, nil
}

// GetTimeEntry retrieves a single time entry by its external id.
func (s *PostgresStore) GetTimeEntry(ctx context.Context, id int64) (*types.TimeEntry, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+TimeEntriesSchema.SelectList()+" FROM time_entries WHERE id = $1", id)
	e, err := scanTimeEntry(row, pgTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return &e, nil
}

// ListTimeEntries returns entries ordered by date then id.
func (s *PostgresStore) ListTimeEntries(ctx context.Context, filter types.TimeEntryFilter) ([]types.TimeEntry, error) {
	q, args := timeEntryQuery(DialectPostgres, filter)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	entries := []types.TimeEntry{}
	for rows.Next() {
		e, err := scanTimeEntry(rows, pgTime)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListPlanningEntries returns entries for a period, or all when period is 0.
func (s *PostgresStore) ListPlanningEntries(ctx context.Context, period int64) ([]types.PlanningEntry, error) {
	q, args := planningEntryQuery(DialectPostgres, period)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list planning entries: %w", err)
	}
	defer rows.Close()

	entries := []types.PlanningEntry{}
	for rows.Next() {
		e, err := scanPlanningEntry(rows, pgTime)
		if err != nil {
			return nil, fmt.Errorf("scan planning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordSyncRun stores the audit record of a run.
func (s *PostgresStore) RecordSyncRun(ctx context.Context, run types.SyncRun) error {
	_, err := s.pool.Exec(ctx, SyncRunsSchema.UpsertSQL(DialectPostgres), syncRunValues(DialectPostgres, run)...)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the most recent runs first.
func (s *PostgresStore) ListSyncRuns(ctx context.Context, limit int) ([]types.SyncRun, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+SyncRunsSchema.SelectList()+" FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT $1",
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []types.SyncRun{}
	for rows.Next() {
		run, err := scanSyncRun(rows, pgTime)
		if err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate store statistics.
func (s *PostgresStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM time_entries),
			(SELECT COUNT(*) FROM planning_entries),
			(SELECT MAX(finished_at) FROM sync_runs WHERE status = $1)
	`, string(types.SyncStatusSuccess)).Scan(&stats.TimeEntryCount, &stats.PlanningEntryCount, &stats.LastSyncAt)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	if stats.LastSyncAt != nil {
		t := stats.LastSyncAt.UTC()
		stats.LastSyncAt = &t
	}
	return &stats, nil
}

// pgTime passes the destination through; pgx scans timestamptz NULL into a nil pointer.
func pgTime(dst **time.Time) any { return dst }
