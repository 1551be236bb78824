package models

import "time"

// Sync history statuses. RUNNING is the only non-terminal state; a record
// never transitions again once COMPLETED or FAILED.
const (
	SyncStatusRunning   = "RUNNING"
	SyncStatusCompleted = "COMPLETED"
	SyncStatusFailed    = "FAILED"
)

// Sync trigger kinds.
const (
	SyncTypeManual    = "MANUAL"
	SyncTypeScheduled = "SCHEDULED"
)

// SyncScopeAll marks a history row covering every enabled entity type.
const SyncScopeAll = "all"

// SyncCounts aggregates per-record outcomes of one sync run.
type SyncCounts struct {
	Processed int `json:"records_processed" db:"records_processed"`
	Created   int `json:"records_created" db:"records_created"`
	Updated   int `json:"records_updated" db:"records_updated"`
	Skipped   int `json:"records_skipped" db:"records_skipped"`
	Failed    int `json:"records_failed" db:"records_failed"`
}

// Add folds another count set into c.
func (c *SyncCounts) Add(other SyncCounts) {
	c.Processed += other.Processed
	c.Created += other.Created
	c.Updated += other.Updated
	c.Skipped += other.Skipped
	c.Failed += other.Failed
}

// SyncHistory is the audit row for one orchestrated sync run. One row per
// orchestrator invocation, created RUNNING before any source read and
// finalized exactly once.
type SyncHistory struct {
	ID              string     `json:"id" db:"id"`
	ConnectionID    string     `json:"connection_id" db:"connection_id"`
	SyncType        string     `json:"sync_type" db:"sync_type"`
	SyncScope       string     `json:"sync_scope" db:"sync_scope"`
	Status          string     `json:"status" db:"status"`
	Counts          SyncCounts `json:"counts"`
	ErrorMessage    *string    `json:"error_message,omitempty" db:"error_message"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	DurationSeconds *int       `json:"duration_seconds,omitempty" db:"duration_seconds"`
	TriggeredBy     string     `json:"triggered_by" db:"triggered_by"`
}

// SyncResult is what a single entity sync returns to its caller.
type SyncResult struct {
	Status          string     `json:"status"`
	Counts          SyncCounts `json:"counts"`
	DurationSeconds int        `json:"duration_seconds"`
	Error           string     `json:"error,omitempty"`
}

// TestResult reports a lightweight reachability check against a source.
type TestResult struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	TablesFound []string `json:"tables_found,omitempty"`
}
