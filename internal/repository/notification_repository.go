package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/workfin/practice-api/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	List(ctx context.Context, tenantID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	var metadata any
	if len(n.Metadata) > 0 {
		metadata = string(n.Metadata)
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO integrations.notifications (tenant_id, event_type, severity, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		n.TenantID, n.EventType, n.Severity, n.Title, n.Message, metadata,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) List(ctx context.Context, tenantID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, tenant_id, event_type, severity, title, message, metadata, created_at, read_at
		FROM integrations.notifications WHERE tenant_id = $1`
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC LIMIT $2"

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var metadata sql.NullString
		if err := rows.Scan(&n.ID, &n.TenantID, &n.EventType, &n.Severity, &n.Title, &n.Message, &metadata, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		if metadata.Valid {
			n.Metadata = json.RawMessage(metadata.String)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE integrations.notifications SET read_at = NOW() WHERE id = $1 AND read_at IS NULL", id)
	return err
}
