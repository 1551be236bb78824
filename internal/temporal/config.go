package temporal

import "time"

// TaskQueueName is the Temporal task queue for practice sync workflows.
const TaskQueueName = "PRACTICE_SYNC"

// SyncWorkflowIDPrefix prefixes sync workflow IDs, keeping them unique per
// connection and entity while staying recognizable in the Temporal UI.
const SyncWorkflowIDPrefix = "practice-sync-"

// DefaultActivityTimeout bounds a single sync activity. Full-history journal
// syncs are the slowest path and fit well within this.
const DefaultActivityTimeout = 30 * time.Minute

// SyncParams is the input of a sync workflow.
type SyncParams struct {
	ConnectionID string
	// EntityType is empty for a full sync of every enabled entity.
	EntityType  string
	TriggeredBy string
}

// SyncOutcome is the per-entity result returned by the sync activity.
type SyncOutcome struct {
	Status          string `json:"status"`
	Processed       int    `json:"records_processed"`
	Created         int    `json:"records_created"`
	Updated         int    `json:"records_updated"`
	Skipped         int    `json:"records_skipped"`
	Failed          int    `json:"records_failed"`
	DurationSeconds int    `json:"duration_seconds"`
	Error           string `json:"error,omitempty"`
}
