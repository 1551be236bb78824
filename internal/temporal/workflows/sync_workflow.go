package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	apptemporal "github.com/workfin/practice-api/internal/temporal"
	"github.com/workfin/practice-api/internal/temporal/activities"
)

// SyncWorkflow runs one sync request, a single entity or a full sync of every
// enabled entity. The orchestrator inside the activity owns history rows and
// idempotence; the workflow only provides durability and timeouts. Retries are
// disabled because a failed sync is already recorded and the scheduler will
// trigger the next run.
func SyncWorkflow(ctx workflow.Context, params apptemporal.SyncParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: apptemporal.DefaultActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("Starting sync workflow", "ConnectionID", params.ConnectionID, "EntityType", params.EntityType)

	// The actual implementation is on the worker; this is just a proxy.
	var a *activities.Activities

	if params.EntityType == "" {
		var outcomes map[string]*apptemporal.SyncOutcome
		if err := workflow.ExecuteActivity(ctx, a.SyncAllActivity, params).Get(ctx, &outcomes); err != nil {
			logger.Error("Full sync workflow failed.", "error", err)
			return err
		}
		logger.Info("Full sync workflow completed.", "ConnectionID", params.ConnectionID, "entities", len(outcomes))
		return nil
	}

	var outcome apptemporal.SyncOutcome
	if err := workflow.ExecuteActivity(ctx, a.SyncEntityActivity, params).Get(ctx, &outcome); err != nil {
		logger.Error("Entity sync workflow failed.", "error", err)
		return err
	}
	logger.Info("Entity sync workflow completed.",
		"ConnectionID", params.ConnectionID,
		"EntityType", params.EntityType,
		"Processed", outcome.Processed)
	return nil
}

// CatalogWorkflow refreshes the lake integration catalog.
func CatalogWorkflow(ctx workflow.Context) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: apptemporal.DefaultActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	var a *activities.Activities

	var count int
	if err := workflow.ExecuteActivity(ctx, a.SyncCatalogActivity).Get(ctx, &count); err != nil {
		logger.Error("Catalog workflow failed.", "error", err)
		return err
	}
	logger.Info("Catalog workflow completed.", "integrations", count)
	return nil
}
