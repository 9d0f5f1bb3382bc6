package types

import (
	"time"
)

// TimeEntry is one row of the "Time" tab after normalization.
// ID is the stable external identifier and the upsert key.
type TimeEntry struct {
	ID               int64      `json:"id"`
	Date             *time.Time `json:"date"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	ProjectName      *string    `json:"project_name"`
	UserFullName     *string    `json:"user_full_name"`
	Description      *string    `json:"description"`
	ProjectCategory  *string    `json:"project_category"`
	Company          *string    `json:"company"`
	TaskList         *string    `json:"task_list"`
	TaskName         *string    `json:"task_name"`
	ParentTask       *string    `json:"parent_task"`
	IsSubTask        bool       `json:"is_sub_task"`
	IsBillable       bool       `json:"is_billable"`
	InvoiceNumber    *string    `json:"invoice_number"`
	Hours            int64      `json:"hours"`
	Minutes          int64      `json:"minutes"`
	DecimalHours     float64    `json:"decimal_hours"`
	EstimatedTime    float64    `json:"estimated_time"`
	EstimatedHours   float64    `json:"estimated_hours"`
	EstimatedMinutes float64    `json:"estimated_minutes"`
	Tags             *string    `json:"tags"`
	TaskTags         *string    `json:"task_tags"`
	FirstName        *string    `json:"first_name"`
	LastName         *string    `json:"last_name"`
	ExternalUserID   *int64     `json:"external_user_id"`
	ExternalTaskID   *int64     `json:"external_task_id"`
	SyncedAt         *time.Time `json:"synced_at,omitempty"`
}

// PlanningEntry is one row of the "Planificacion" tab after normalization.
// The triple (Period, FirstName, Activity) is its natural key.
type PlanningEntry struct {
	Period            int64      `json:"period"`
	MonthName         *string    `json:"month_name"`
	FirstName         string     `json:"first_name"`
	CapacityHours     float64    `json:"capacity_hours"`
	Activity          string     `json:"activity"`
	Priority          *string    `json:"priority"`
	PlannedPercentage float64    `json:"planned_percentage"`
	PlannedHours      float64    `json:"planned_hours"`
	SyncedAt          *time.Time `json:"synced_at,omitempty"`
}

// SyncTrigger identifies what started a sync run.
type SyncTrigger string

const (
	TriggerHTTP     SyncTrigger = "http"
	TriggerCLI      SyncTrigger = "cli"
	TriggerSchedule SyncTrigger = "schedule"
)

// SyncStatus is the terminal state of a recorded sync run.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncResult is the payload returned by a successful sync run.
type SyncResult struct {
	Message              string `json:"message"`
	TimeEntriesCount     int    `json:"time_entries_count"`
	PlanningEntriesCount int    `json:"planning_entries_count"`
	RunID                string `json:"run_id,omitempty"`
}

// SyncErrorResponse is the payload returned when a sync run fails.
type SyncErrorResponse struct {
	Error string `json:"error"`
}

// SyncRun is the audit record of a sync invocation that reached the store.
type SyncRun struct {
	ID                   string      `json:"id"`
	Trigger              SyncTrigger `json:"trigger"`
	Status               SyncStatus  `json:"status"`
	TimeEntriesCount     int         `json:"time_entries_count"`
	PlanningEntriesCount int         `json:"planning_entries_count"`
	Error                *string     `json:"error,omitempty"`
	StartedAt            time.Time   `json:"started_at"`
	FinishedAt           time.Time   `json:"finished_at"`
}

// TimeEntryFilter narrows ListTimeEntries. Zero values mean "no bound".
type TimeEntryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// StoreStats holds aggregate counts for the health endpoint.
type StoreStats struct {
	TimeEntryCount     int64      `json:"time_entry_count"`
	PlanningEntryCount int64      `json:"planning_entry_count"`
	LastSyncAt         *time.Time `json:"last_sync_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status             string     `json:"status"`
	Version            string     `json:"version"`
	Driver             string     `json:"driver"`
	TimeEntryCount     int64      `json:"time_entry_count"`
	PlanningEntryCount int64      `json:"planning_entry_count"`
	LastSyncAt         *time.Time `json:"last_sync_at"`
}

// SheetReadResponse wraps the rows returned by the sheet preview endpoint.
type SheetReadResponse struct {
	Data [][]any `json:"data"`
}

// SyncRunsResponse wraps the recent sync runs listing.
type SyncRunsResponse struct {
	Runs []SyncRun `json:"runs"`
}

// TimeEntriesResponse wraps the time entries listing.
type TimeEntriesResponse struct {
	Entries []TimeEntry `json:"entries"`
	Count   int         `json:"count"`
}

// PlanningEntriesResponse wraps the planning entries listing.
type PlanningEntriesResponse struct {
	Entries []PlanningEntry `json:"entries"`
	Count   int             `json:"count"`
}

// ArchiveURLResponse carries a pre-signed download link for an archived run.
type ArchiveURLResponse struct {
	RunID     string    `json:"run_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
