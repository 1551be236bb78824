package repository

import (
	"context"
	"database/sql"

	"github.com/workfin/practice-api/internal/models"
)

// CatalogRepository stores the lake integration catalog used for scope
// resolution and for the frontend's integration dropdown.
type CatalogRepository interface {
	List(ctx context.Context) ([]*models.LakeIntegration, error)
	ResolveIDByName(ctx context.Context, integrationName string) (*string, error)
	Upsert(ctx context.Context, integrations []models.LakeIntegration) (int, error)
}

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) List(ctx context.Context) ([]*models.LakeIntegration, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT integration_id, integration_name, source_table, last_synced_at FROM integrations.lake_integrations ORDER BY integration_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LakeIntegration
	for rows.Next() {
		li := &models.LakeIntegration{}
		if err := rows.Scan(&li.IntegrationID, &li.IntegrationName, &li.SourceTable, &li.LastSyncedAt); err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

func (r *catalogRepository) ResolveIDByName(ctx context.Context, integrationName string) (*string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		"SELECT integration_id FROM integrations.lake_integrations WHERE integration_name = $1 LIMIT 1",
		integrationName,
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

func (r *catalogRepository) Upsert(ctx context.Context, integrations []models.LakeIntegration) (int, error) {
	count := 0
	for _, li := range integrations {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO integrations.lake_integrations (integration_id, integration_name, source_table, last_synced_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (integration_id) DO UPDATE SET
				integration_name = EXCLUDED.integration_name,
				source_table = EXCLUDED.source_table,
				last_synced_at = NOW()`,
			li.IntegrationID, li.IntegrationName, li.SourceTable,
		)
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
