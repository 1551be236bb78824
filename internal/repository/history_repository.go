package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/workfin/practice-api/internal/models"
)

type HistoryRepository interface {
	Create(ctx context.Context, h *models.SyncHistory) (*models.SyncHistory, error)
	Finalize(ctx context.Context, id, status string, counts models.SyncCounts, errMsg *string, completedAt time.Time, durationSeconds int) error
	ListByConnection(ctx context.Context, connectionID string, limit int) ([]*models.SyncHistory, error)
}

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, h *models.SyncHistory) (*models.SyncHistory, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO integrations.sync_history (
			connection_id, sync_type, sync_scope, status, started_at, triggered_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		h.ConnectionID, h.SyncType, h.SyncScope, h.Status, h.StartedAt, h.TriggeredBy,
	).Scan(&h.ID)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Finalize moves a RUNNING row to its terminal state. The status guard makes
// the transition idempotent: a second finalize for the same run is a no-op.
func (r *historyRepository) Finalize(ctx context.Context, id, status string, counts models.SyncCounts, errMsg *string, completedAt time.Time, durationSeconds int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE integrations.sync_history SET
			status = $1,
			records_processed = $2, records_created = $3, records_updated = $4,
			records_skipped = $5, records_failed = $6,
			error_message = $7, completed_at = $8, duration_seconds = $9
		WHERE id = $10 AND status = 'RUNNING'`,
		status,
		counts.Processed, counts.Created, counts.Updated, counts.Skipped, counts.Failed,
		errMsg, completedAt, durationSeconds, id,
	)
	return err
}

func (r *historyRepository) ListByConnection(ctx context.Context, connectionID string, limit int) ([]*models.SyncHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, connection_id, sync_type, sync_scope, status,
			records_processed, records_created, records_updated, records_skipped, records_failed,
			error_message, started_at, completed_at, duration_seconds, triggered_by
		FROM integrations.sync_history
		WHERE connection_id = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		connectionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*models.SyncHistory
	for rows.Next() {
		h := &models.SyncHistory{}
		if err := rows.Scan(
			&h.ID, &h.ConnectionID, &h.SyncType, &h.SyncScope, &h.Status,
			&h.Counts.Processed, &h.Counts.Created, &h.Counts.Updated, &h.Counts.Skipped, &h.Counts.Failed,
			&h.ErrorMessage, &h.StartedAt, &h.CompletedAt, &h.DurationSeconds, &h.TriggeredBy,
		); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
