// Package worker runs background jobs for the server process.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/vortex/internal/types"
)

// Syncer runs one spreadsheet-to-store synchronization.
type Syncer interface {
	Run(ctx context.Context, trigger types.SyncTrigger) (*types.SyncResult, error)
}

// SyncScheduler runs the sync on a fixed interval.
type SyncScheduler struct {
	syncer   Syncer
	interval time.Duration
}

// NewSyncScheduler creates a scheduler with the given syncer and interval.
func NewSyncScheduler(syncer Syncer, interval time.Duration) *SyncScheduler {
	return &SyncScheduler{
		syncer:   syncer,
		interval: interval,
	}
}

// Run starts the scheduler loop. Syncs immediately on start, then on each
// interval, until ctx is cancelled. Runs never overlap: a tick that fires
// while a run is in progress is dropped by the ticker.
func (s *SyncScheduler) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "sync-scheduler",
		"action", "worker_started",
		"interval", s.interval.String(),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "sync-scheduler",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce performs a scheduled sync and logs the outcome.
func (s *SyncScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	result, err := s.syncer.Run(ctx, types.TriggerSchedule)
	if err != nil {
		if ctx.Err() != nil {
			return // Graceful shutdown, don't log as failure
		}
		slog.Warn("scheduled sync failed",
			"component", "worker",
			"worker", "sync-scheduler",
			"action", "sync_failed",
			"error", err,
		)
		return
	}

	slog.Info("scheduled sync completed",
		"component", "worker",
		"worker", "sync-scheduler",
		"action", "sync_complete",
		"message", result.Message,
		"time_entries", result.TimeEntriesCount,
		"planning_entries", result.PlanningEntriesCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
