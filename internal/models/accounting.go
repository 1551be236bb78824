package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical accounting records, normalized from the accounting API's payloads.
// Every record carries the denormalized tenant/integration tags so reads can
// filter by tenant without joining back to the connection table, plus the full
// raw payload for forward compatibility.

// Account is one chart-of-accounts entry.
type Account struct {
	ExternalID     string          `json:"account_id" db:"account_id"`
	TenantID       string          `json:"tenant_id" db:"tenant_id"`
	TenantName     *string         `json:"tenant_name,omitempty" db:"tenant_name"`
	IntegrationID  *string         `json:"integration_id,omitempty" db:"integration_id"`
	Code           *string         `json:"code,omitempty" db:"code"`
	Name           string          `json:"name" db:"name"`
	Type           *string         `json:"type,omitempty" db:"type"`
	Class          *string         `json:"class,omitempty" db:"class"`
	Status         *string         `json:"status,omitempty" db:"status"`
	Description    *string         `json:"description,omitempty" db:"description"`
	CurrencyCode   *string         `json:"currency_code,omitempty" db:"currency_code"`
	TaxType        *string         `json:"tax_type,omitempty" db:"tax_type"`
	UpdatedDateUTC *time.Time      `json:"updated_date_utc,omitempty" db:"updated_date_utc"`
	RawData        json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`
	SyncedAt       time.Time       `json:"synced_at" db:"synced_at"`
}

// Contact is a customer or supplier.
type Contact struct {
	ExternalID     string          `json:"contact_id" db:"contact_id"`
	TenantID       string          `json:"tenant_id" db:"tenant_id"`
	TenantName     *string         `json:"tenant_name,omitempty" db:"tenant_name"`
	IntegrationID  *string         `json:"integration_id,omitempty" db:"integration_id"`
	Name           string          `json:"name" db:"name"`
	FirstName      *string         `json:"first_name,omitempty" db:"first_name"`
	LastName       *string         `json:"last_name,omitempty" db:"last_name"`
	EmailAddress   *string         `json:"email_address,omitempty" db:"email_address"`
	ContactStatus  *string         `json:"contact_status,omitempty" db:"contact_status"`
	TaxNumber      *string         `json:"tax_number,omitempty" db:"tax_number"`
	IsSupplier     bool            `json:"is_supplier" db:"is_supplier"`
	IsCustomer     bool            `json:"is_customer" db:"is_customer"`
	UpdatedDateUTC *time.Time      `json:"updated_date_utc,omitempty" db:"updated_date_utc"`
	RawData        json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`
	SyncedAt       time.Time       `json:"synced_at" db:"synced_at"`
}

// Invoice is an accounts-receivable or accounts-payable invoice. The embedded
// source contact is flattened to id + display name.
type Invoice struct {
	ExternalID     string           `json:"invoice_id" db:"invoice_id"`
	TenantID       string           `json:"tenant_id" db:"tenant_id"`
	TenantName     *string          `json:"tenant_name,omitempty" db:"tenant_name"`
	IntegrationID  *string          `json:"integration_id,omitempty" db:"integration_id"`
	Type           *string          `json:"type,omitempty" db:"type"`
	InvoiceNumber  *string          `json:"invoice_number,omitempty" db:"invoice_number"`
	Reference      *string          `json:"reference,omitempty" db:"reference"`
	ContactID      *string          `json:"contact_id,omitempty" db:"contact_id"`
	ContactName    *string          `json:"contact_name,omitempty" db:"contact_name"`
	Date           *time.Time       `json:"date,omitempty" db:"date"`
	DueDate        *time.Time       `json:"due_date,omitempty" db:"due_date"`
	Status         *string          `json:"status,omitempty" db:"status"`
	SubTotal       *decimal.Decimal `json:"sub_total,omitempty" db:"sub_total"`
	TotalTax       *decimal.Decimal `json:"total_tax,omitempty" db:"total_tax"`
	Total          *decimal.Decimal `json:"total,omitempty" db:"total"`
	AmountDue      *decimal.Decimal `json:"amount_due,omitempty" db:"amount_due"`
	AmountPaid     *decimal.Decimal `json:"amount_paid,omitempty" db:"amount_paid"`
	CurrencyCode   *string          `json:"currency_code,omitempty" db:"currency_code"`
	UpdatedDateUTC *time.Time       `json:"updated_date_utc,omitempty" db:"updated_date_utc"`
	RawData        json.RawMessage  `json:"raw_data,omitempty" db:"raw_data"`
	SyncedAt       time.Time        `json:"synced_at" db:"synced_at"`
}

// Payment applies money against an invoice or credit note.
type Payment struct {
	ExternalID     string           `json:"payment_id" db:"payment_id"`
	TenantID       string           `json:"tenant_id" db:"tenant_id"`
	TenantName     *string          `json:"tenant_name,omitempty" db:"tenant_name"`
	IntegrationID  *string          `json:"integration_id,omitempty" db:"integration_id"`
	Date           *time.Time       `json:"date,omitempty" db:"date"`
	Amount         *decimal.Decimal `json:"amount,omitempty" db:"amount"`
	Reference      *string          `json:"reference,omitempty" db:"reference"`
	Status         *string          `json:"status,omitempty" db:"status"`
	PaymentType    *string          `json:"payment_type,omitempty" db:"payment_type"`
	IsReconciled   bool             `json:"is_reconciled" db:"is_reconciled"`
	AccountID      *string          `json:"account_id,omitempty" db:"account_id"`
	InvoiceID      *string          `json:"invoice_id,omitempty" db:"invoice_id"`
	UpdatedDateUTC *time.Time       `json:"updated_date_utc,omitempty" db:"updated_date_utc"`
	RawData        json.RawMessage  `json:"raw_data,omitempty" db:"raw_data"`
	SyncedAt       time.Time        `json:"synced_at" db:"synced_at"`
}

// BankTransaction is a spend/receive money transaction on a bank account.
type BankTransaction struct {
	ExternalID     string           `json:"bank_transaction_id" db:"bank_transaction_id"`
	TenantID       string           `json:"tenant_id" db:"tenant_id"`
	TenantName     *string          `json:"tenant_name,omitempty" db:"tenant_name"`
	IntegrationID  *string          `json:"integration_id,omitempty" db:"integration_id"`
	Type           *string          `json:"type,omitempty" db:"type"`
	ContactID      *string          `json:"contact_id,omitempty" db:"contact_id"`
	ContactName    *string          `json:"contact_name,omitempty" db:"contact_name"`
	BankAccountID  *string          `json:"bank_account_id,omitempty" db:"bank_account_id"`
	Date           *time.Time       `json:"date,omitempty" db:"date"`
	Status         *string          `json:"status,omitempty" db:"status"`
	IsReconciled   bool             `json:"is_reconciled" db:"is_reconciled"`
	SubTotal       *decimal.Decimal `json:"sub_total,omitempty" db:"sub_total"`
	TotalTax       *decimal.Decimal `json:"total_tax,omitempty" db:"total_tax"`
	Total          *decimal.Decimal `json:"total,omitempty" db:"total"`
	CurrencyCode   *string          `json:"currency_code,omitempty" db:"currency_code"`
	UpdatedDateUTC *time.Time       `json:"updated_date_utc,omitempty" db:"updated_date_utc"`
	RawData        json.RawMessage  `json:"raw_data,omitempty" db:"raw_data"`
	SyncedAt       time.Time        `json:"synced_at" db:"synced_at"`
}

// Journal is one general-ledger journal. Its lines are separate records
// referencing the journal's external id.
type Journal struct {
	ExternalID     string          `json:"journal_id" db:"journal_id"`
	TenantID       string          `json:"tenant_id" db:"tenant_id"`
	TenantName     *string         `json:"tenant_name,omitempty" db:"tenant_name"`
	IntegrationID  *string         `json:"integration_id,omitempty" db:"integration_id"`
	JournalDate    *time.Time      `json:"journal_date,omitempty" db:"journal_date"`
	JournalNumber  *int            `json:"journal_number,omitempty" db:"journal_number"`
	Reference      *string         `json:"reference,omitempty" db:"reference"`
	SourceID       *string         `json:"source_id,omitempty" db:"source_id"`
	SourceType     *string         `json:"source_type,omitempty" db:"source_type"`
	CreatedDateUTC *time.Time      `json:"created_date_utc,omitempty" db:"created_date_utc"`
	RawData        json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`
	SyncedAt       time.Time       `json:"synced_at" db:"synced_at"`
	Lines          []JournalLine   `json:"lines,omitempty"`
}

// JournalLine is one debit/credit line of a journal.
type JournalLine struct {
	ExternalID    string           `json:"journal_line_id" db:"journal_line_id"`
	JournalID     string           `json:"journal_id" db:"journal_id"`
	TenantID      string           `json:"tenant_id" db:"tenant_id"`
	IntegrationID *string          `json:"integration_id,omitempty" db:"integration_id"`
	AccountID     *string          `json:"account_id,omitempty" db:"account_id"`
	AccountCode   *string          `json:"account_code,omitempty" db:"account_code"`
	AccountName   *string          `json:"account_name,omitempty" db:"account_name"`
	Description   *string          `json:"description,omitempty" db:"description"`
	NetAmount     *decimal.Decimal `json:"net_amount,omitempty" db:"net_amount"`
	GrossAmount   *decimal.Decimal `json:"gross_amount,omitempty" db:"gross_amount"`
	TaxAmount     *decimal.Decimal `json:"tax_amount,omitempty" db:"tax_amount"`
	TaxType       *string          `json:"tax_type,omitempty" db:"tax_type"`
	SyncedAt      time.Time        `json:"synced_at" db:"synced_at"`
}
