package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/syncer"
	"github.com/workfin/practice-api/internal/temporal"
)

// Activities wraps the sync orchestrator for execution on the Temporal task
// queue. The orchestrator does the real work; activities only translate
// parameters and results.
type Activities struct {
	Orchestrator *syncer.Orchestrator
}

// SyncEntityActivity runs one entity sync. The orchestrator writes its own
// history row and notifications, so a failed sync is reported back to
// Temporal without retry-sensitive side effects left behind.
func (a *Activities) SyncEntityActivity(ctx context.Context, params temporal.SyncParams) (*temporal.SyncOutcome, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Running entity sync", "connectionID", params.ConnectionID, "entity", params.EntityType)

	result, err := a.Orchestrator.SyncEntity(ctx, params.ConnectionID, models.EntityType(params.EntityType), params.TriggeredBy)
	if err != nil {
		logger.Error("Entity sync failed", "connectionID", params.ConnectionID, "entity", params.EntityType, "error", err)
		if result != nil {
			return outcomeFromResult(result), err
		}
		return nil, err
	}
	return outcomeFromResult(result), nil
}

// SyncAllActivity runs every enabled entity for the connection. Per-entity
// failures are already folded into the result map, so the activity itself only
// fails on setup problems such as a missing connection.
func (a *Activities) SyncAllActivity(ctx context.Context, params temporal.SyncParams) (map[string]*temporal.SyncOutcome, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Running full sync", "connectionID", params.ConnectionID)

	results, err := a.Orchestrator.SyncAll(ctx, params.ConnectionID, params.TriggeredBy)
	if err != nil {
		logger.Error("Full sync failed", "connectionID", params.ConnectionID, "error", err)
		return nil, err
	}

	outcomes := make(map[string]*temporal.SyncOutcome, len(results))
	for entity, result := range results {
		outcomes[string(entity)] = outcomeFromResult(result)
	}
	return outcomes, nil
}

// SyncCatalogActivity refreshes the lake integration catalog.
func (a *Activities) SyncCatalogActivity(ctx context.Context) (int, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Refreshing lake integration catalog")

	count, err := a.Orchestrator.SyncCatalog(ctx)
	if err != nil {
		logger.Error("Catalog refresh failed", "error", err)
		return 0, err
	}
	return count, nil
}

func outcomeFromResult(r *models.SyncResult) *temporal.SyncOutcome {
	if r == nil {
		return nil
	}
	return &temporal.SyncOutcome{
		Status:          r.Status,
		Processed:       r.Counts.Processed,
		Created:         r.Counts.Created,
		Updated:         r.Counts.Updated,
		Skipped:         r.Counts.Skipped,
		Failed:          r.Counts.Failed,
		DurationSeconds: r.DurationSeconds,
		Error:           r.Error,
	}
}
