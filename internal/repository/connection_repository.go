package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/models"
)

// ErrDuplicateIntegrationID is returned when a create or update collides with
// another connection's integration_id. The id is unique across all tenants.
var ErrDuplicateIntegrationID = errors.New("integration_id is already registered")

type ConnectionRepository interface {
	List(ctx context.Context, tenantID string) ([]*models.Connection, error)
	Get(ctx context.Context, id string) (*models.Connection, error)
	Create(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	Update(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	UpdateSyncStatus(ctx context.Context, id, status string, syncErr *string, recordsCount *int, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, tenant_id, tenant_name, practice_id, practice_name,
	integration_type, integration_id, integration_name, external_practice_id,
	data_source, sync_frequency,
	sync_accounts, sync_contacts, sync_invoices, sync_payments, sync_bank_transactions, sync_journals,
	sync_patients, sync_appointments, sync_providers, sync_treatments,
	connection_status, last_sync_at, last_sync_status, last_sync_error, last_sync_records_count,
	created_at, updated_at`

func scanConnection(row interface{ Scan(...any) error }) (*models.Connection, error) {
	conn := &models.Connection{}
	err := row.Scan(
		&conn.ID, &conn.TenantID, &conn.TenantName, &conn.PracticeID, &conn.PracticeName,
		&conn.IntegrationType, &conn.IntegrationID, &conn.IntegrationName, &conn.ExternalPracticeID,
		&conn.DataSource, &conn.SyncFrequency,
		&conn.Flags.Accounts, &conn.Flags.Contacts, &conn.Flags.Invoices, &conn.Flags.Payments,
		&conn.Flags.BankTransactions, &conn.Flags.Journals,
		&conn.Flags.Patients, &conn.Flags.Appointments, &conn.Flags.Providers, &conn.Flags.Treatments,
		&conn.Status, &conn.LastSyncAt, &conn.LastSyncStatus, &conn.LastSyncError, &conn.LastSyncRecords,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepository) List(ctx context.Context, tenantID string) ([]*models.Connection, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+connectionColumns+" FROM integrations.connections WHERE tenant_id = $1 ORDER BY created_at",
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, conn)
	}
	return connections, rows.Err()
}

func (r *connectionRepository) Get(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := scanConnection(r.db.QueryRowContext(ctx,
		"SELECT "+connectionColumns+" FROM integrations.connections WHERE id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepository) Create(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO integrations.connections (
			tenant_id, tenant_name, practice_id, practice_name,
			integration_type, integration_id, integration_name, external_practice_id,
			data_source, sync_frequency,
			sync_accounts, sync_contacts, sync_invoices, sync_payments, sync_bank_transactions, sync_journals,
			sync_patients, sync_appointments, sync_providers, sync_treatments,
			connection_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at, updated_at`,
		conn.TenantID, conn.TenantName, conn.PracticeID, conn.PracticeName,
		conn.IntegrationType, conn.IntegrationID, conn.IntegrationName, conn.ExternalPracticeID,
		conn.DataSource, conn.SyncFrequency,
		conn.Flags.Accounts, conn.Flags.Contacts, conn.Flags.Invoices, conn.Flags.Payments,
		conn.Flags.BankTransactions, conn.Flags.Journals,
		conn.Flags.Patients, conn.Flags.Appointments, conn.Flags.Providers, conn.Flags.Treatments,
		conn.Status,
	).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return conn, nil
}

func (r *connectionRepository) Update(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE integrations.connections SET
			tenant_name = $1, practice_id = $2, practice_name = $3,
			integration_type = $4, integration_id = $5, integration_name = $6, external_practice_id = $7,
			data_source = $8, sync_frequency = $9,
			sync_accounts = $10, sync_contacts = $11, sync_invoices = $12, sync_payments = $13,
			sync_bank_transactions = $14, sync_journals = $15,
			sync_patients = $16, sync_appointments = $17, sync_providers = $18, sync_treatments = $19,
			connection_status = $20, updated_at = NOW()
		WHERE id = $21`,
		conn.TenantName, conn.PracticeID, conn.PracticeName,
		conn.IntegrationType, conn.IntegrationID, conn.IntegrationName, conn.ExternalPracticeID,
		conn.DataSource, conn.SyncFrequency,
		conn.Flags.Accounts, conn.Flags.Contacts, conn.Flags.Invoices, conn.Flags.Payments,
		conn.Flags.BankTransactions, conn.Flags.Journals,
		conn.Flags.Patients, conn.Flags.Appointments, conn.Flags.Providers, conn.Flags.Treatments,
		conn.Status, conn.ID,
	)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return conn, nil
}

func (r *connectionRepository) UpdateSyncStatus(ctx context.Context, id, status string, syncErr *string, recordsCount *int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE integrations.connections SET
			last_sync_at = $1, last_sync_status = $2, last_sync_error = $3,
			last_sync_records_count = COALESCE($4, last_sync_records_count), updated_at = NOW()
		WHERE id = $5`,
		at, status, syncErr, recordsCount, id,
	)
	return err
}

// Delete removes the connection row outright. Tokens and history rows go with
// it via ON DELETE CASCADE; synced entity data stays.
func (r *connectionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM integrations.connections WHERE id = $1", id)
	return err
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateIntegrationID
	}
	return err
}
