package models

import "time"

// IntegrationType identifies the kind of external system a connection binds to.
type IntegrationType string

const (
	IntegrationXero IntegrationType = "XERO"
	IntegrationSOE  IntegrationType = "SOE"
	IntegrationSFD  IntegrationType = "SFD"
)

// DataSourceKind describes where a connection's records are read from.
type DataSourceKind string

const (
	DataSourceGoldLayer DataSourceKind = "GOLD_LAYER"
	DataSourceDirectAPI DataSourceKind = "DIRECT_API"
)

// Connection statuses.
const (
	ConnectionStatusConnected = "CONNECTED"
	ConnectionStatusDisabled  = "DISABLED"
	ConnectionStatusError     = "ERROR"
	ConnectionStatusPending   = "PENDING"
	ConnectionStatusTesting   = "TESTING"
)

// EntityType is one of the syncable record kinds.
type EntityType string

const (
	EntityAccounts         EntityType = "accounts"
	EntityContacts         EntityType = "contacts"
	EntityInvoices         EntityType = "invoices"
	EntityPayments         EntityType = "payments"
	EntityBankTransactions EntityType = "bank_transactions"
	EntityJournals         EntityType = "journals"
	EntityPatients         EntityType = "patients"
	EntityAppointments     EntityType = "appointments"
	EntityProviders        EntityType = "providers"
	EntityTreatments       EntityType = "treatments"
)

// AllEntityTypes lists every syncable entity type in the order sync_all
// processes them.
var AllEntityTypes = []EntityType{
	EntityAccounts,
	EntityContacts,
	EntityInvoices,
	EntityPayments,
	EntityBankTransactions,
	EntityJournals,
	EntityPatients,
	EntityAppointments,
	EntityProviders,
	EntityTreatments,
}

// IsValidEntityType reports whether s names a known entity type.
func IsValidEntityType(s string) bool {
	for _, e := range AllEntityTypes {
		if string(e) == s {
			return true
		}
	}
	return false
}

// SyncFlags holds the per-entity enable switches of a connection.
type SyncFlags struct {
	Accounts         bool `json:"sync_accounts" db:"sync_accounts"`
	Contacts         bool `json:"sync_contacts" db:"sync_contacts"`
	Invoices         bool `json:"sync_invoices" db:"sync_invoices"`
	Payments         bool `json:"sync_payments" db:"sync_payments"`
	BankTransactions bool `json:"sync_bank_transactions" db:"sync_bank_transactions"`
	Journals         bool `json:"sync_journals" db:"sync_journals"`
	Patients         bool `json:"sync_patients" db:"sync_patients"`
	Appointments     bool `json:"sync_appointments" db:"sync_appointments"`
	Providers        bool `json:"sync_providers" db:"sync_providers"`
	Treatments       bool `json:"sync_treatments" db:"sync_treatments"`
}

// Connection is one configured link between a tenant/practice and an external
// integration instance. integration_id is unique across all connections; a
// deleted connection can be re-registered under the same id immediately
// (hard delete, no tombstones).
type Connection struct {
	ID                 string          `json:"id" db:"id"`
	TenantID           string          `json:"tenant_id" db:"tenant_id"`
	TenantName         *string         `json:"tenant_name,omitempty" db:"tenant_name"`
	PracticeID         *string         `json:"practice_id,omitempty" db:"practice_id"`
	PracticeName       *string         `json:"practice_name,omitempty" db:"practice_name"`
	IntegrationType    IntegrationType `json:"integration_type" db:"integration_type"`
	IntegrationID      string          `json:"integration_id" db:"integration_id"`
	IntegrationName    string          `json:"integration_name" db:"integration_name"`
	ExternalPracticeID *string         `json:"external_practice_id,omitempty" db:"external_practice_id"`
	DataSource         DataSourceKind  `json:"data_source" db:"data_source"`
	SyncFrequency      *string         `json:"sync_frequency,omitempty" db:"sync_frequency"`
	Flags              SyncFlags       `json:"flags"`
	Status             string          `json:"connection_status" db:"connection_status"`
	LastSyncAt         *time.Time      `json:"last_sync_at,omitempty" db:"last_sync_at"`
	LastSyncStatus     *string         `json:"last_sync_status,omitempty" db:"last_sync_status"`
	LastSyncError      *string         `json:"last_sync_error,omitempty" db:"last_sync_error"`
	LastSyncRecords    *int            `json:"last_sync_records_count,omitempty" db:"last_sync_records_count"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// EnabledEntities returns the entity types enabled for this connection, in
// the fixed processing order of sync_all.
func (c *Connection) EnabledEntities() []EntityType {
	flags := map[EntityType]bool{
		EntityAccounts:         c.Flags.Accounts,
		EntityContacts:         c.Flags.Contacts,
		EntityInvoices:         c.Flags.Invoices,
		EntityPayments:         c.Flags.Payments,
		EntityBankTransactions: c.Flags.BankTransactions,
		EntityJournals:         c.Flags.Journals,
		EntityPatients:         c.Flags.Patients,
		EntityAppointments:     c.Flags.Appointments,
		EntityProviders:        c.Flags.Providers,
		EntityTreatments:       c.Flags.Treatments,
	}
	var enabled []EntityType
	for _, e := range AllEntityTypes {
		if flags[e] {
			enabled = append(enabled, e)
		}
	}
	return enabled
}

// LakeIntegration is one row of the source-id-to-display-name catalog used
// for scope resolution when a connection has no explicit external practice id.
type LakeIntegration struct {
	IntegrationID   string    `json:"integration_id" db:"integration_id"`
	IntegrationName string    `json:"integration_name" db:"integration_name"`
	SourceTable     *string   `json:"source_table,omitempty" db:"source_table"`
	LastSyncedAt    time.Time `json:"last_synced_at" db:"last_synced_at"`
}

// OAuthToken is a connection-scoped OAuth token set. A token belongs to one
// connection, never to the process.
type OAuthToken struct {
	ConnectionID string    `json:"connection_id" db:"connection_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	TokenType    string    `json:"token_type" db:"token_type"`
	Scope        *string   `json:"scope,omitempty" db:"scope"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
