package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/repository"
)

type Event struct {
	TenantID string
	Event    models.NotificationEvent
	Severity models.NotificationSeverity
	Title    string
	Message  string
	Metadata map[string]interface{}
}

// Service records sync lifecycle events for the frontend activity feed.
// Publishing is best effort: a notification failure never fails the sync that
// produced it, callers log and move on.
type Service interface {
	Publish(ctx context.Context, evt Event) (*models.Notification, error)
	NotifySyncStarted(ctx context.Context, conn *models.Connection, scope string)
	NotifySyncCompleted(ctx context.Context, conn *models.Connection, scope string, counts models.SyncCounts)
	NotifySyncFailed(ctx context.Context, conn *models.Connection, scope, reason string)
	ListRecent(ctx context.Context, tenantID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type service struct {
	repo   repository.NotificationRepository
	logger zerolog.Logger
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (*models.Notification, error) {
	if evt.Event == "" {
		return nil, fmt.Errorf("event type is required")
	}
	if evt.Severity == "" {
		evt.Severity = models.NotificationSeverityInfo
	}
	title := strings.TrimSpace(evt.Title)
	if title == "" {
		title = string(evt.Event)
	}

	n := &models.Notification{
		EventType: evt.Event,
		Severity:  evt.Severity,
		Title:     title,
		Message:   strings.TrimSpace(evt.Message),
	}
	if tid := strings.TrimSpace(evt.TenantID); tid != "" {
		n.TenantID = &tid
	}
	if len(evt.Metadata) > 0 {
		if data, err := json.Marshal(evt.Metadata); err == nil {
			n.Metadata = data
		}
	}

	created, err := s.repo.Create(ctx, n)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("failed to persist notification")
		return nil, err
	}
	return created, nil
}

func (s *service) NotifySyncStarted(ctx context.Context, conn *models.Connection, scope string) {
	s.publishQuiet(ctx, Event{
		TenantID: conn.TenantID,
		Event:    models.NotificationEventSyncStarted,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Sync started: %s", conn.IntegrationName),
		Message:  fmt.Sprintf("Syncing %s for %s.", scope, conn.IntegrationName),
		Metadata: map[string]interface{}{
			"connection_id": conn.ID,
			"sync_scope":    scope,
		},
	})
}

func (s *service) NotifySyncCompleted(ctx context.Context, conn *models.Connection, scope string, counts models.SyncCounts) {
	s.publishQuiet(ctx, Event{
		TenantID: conn.TenantID,
		Event:    models.NotificationEventSyncCompleted,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Sync completed: %s", conn.IntegrationName),
		Message: fmt.Sprintf("Synced %s for %s: %d processed, %d created, %d updated.",
			scope, conn.IntegrationName, counts.Processed, counts.Created, counts.Updated),
		Metadata: map[string]interface{}{
			"connection_id":     conn.ID,
			"sync_scope":        scope,
			"records_processed": counts.Processed,
			"records_created":   counts.Created,
			"records_updated":   counts.Updated,
			"records_skipped":   counts.Skipped,
			"records_failed":    counts.Failed,
		},
	})
}

func (s *service) NotifySyncFailed(ctx context.Context, conn *models.Connection, scope, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Unknown error"
	}
	s.publishQuiet(ctx, Event{
		TenantID: conn.TenantID,
		Event:    models.NotificationEventSyncFailed,
		Severity: models.NotificationSeverityError,
		Title:    fmt.Sprintf("Sync failed: %s", conn.IntegrationName),
		Message:  fmt.Sprintf("Sync of %s for %s failed: %s", scope, conn.IntegrationName, reason),
		Metadata: map[string]interface{}{
			"connection_id": conn.ID,
			"sync_scope":    scope,
			"reason":        reason,
		},
	})
}

func (s *service) ListRecent(ctx context.Context, tenantID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	return s.repo.List(ctx, tenantID, unreadOnly, limit)
}

func (s *service) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *service) publishQuiet(ctx context.Context, evt Event) {
	if _, err := s.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(evt.Event)).Msg("dropping notification")
	}
}
