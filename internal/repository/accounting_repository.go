package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/workfin/practice-api/internal/models"
)

// AccountingRepository writes normalized accounting records. All writes are
// idempotent upserts keyed on (tenant_id, external id); re-syncing the same
// data changes nothing but synced_at.
type AccountingRepository interface {
	UpsertAccounts(ctx context.Context, records []*models.Account) (UpsertResult, error)
	UpsertContacts(ctx context.Context, records []*models.Contact) (UpsertResult, error)
	UpsertInvoices(ctx context.Context, records []*models.Invoice) (UpsertResult, error)
	UpsertPayments(ctx context.Context, records []*models.Payment) (UpsertResult, error)
	UpsertBankTransactions(ctx context.Context, records []*models.BankTransaction) (UpsertResult, error)
	UpsertJournals(ctx context.Context, records []*models.Journal) (UpsertResult, error)
}

type accountingRepository struct {
	db *sql.DB
}

func NewAccountingRepository(db *sql.DB) AccountingRepository {
	return &accountingRepository{db: db}
}

// rawJSON renders a raw payload for a jsonb parameter, nil when empty.
func rawJSON(j json.RawMessage) any {
	if len(j) == 0 {
		return nil
	}
	return string(j)
}

func (r *accountingRepository) UpsertAccounts(ctx context.Context, records []*models.Account) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		a := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO accounting.accounts (
				account_id, tenant_id, tenant_name, integration_id, code, name, type, class,
				status, description, currency_code, tax_type, updated_date_utc, raw_data, synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (tenant_id, account_id) DO UPDATE SET
				tenant_name = EXCLUDED.tenant_name, integration_id = EXCLUDED.integration_id,
				code = EXCLUDED.code, name = EXCLUDED.name, type = EXCLUDED.type, class = EXCLUDED.class,
				status = EXCLUDED.status, description = EXCLUDED.description,
				currency_code = EXCLUDED.currency_code, tax_type = EXCLUDED.tax_type,
				updated_date_utc = EXCLUDED.updated_date_utc, raw_data = EXCLUDED.raw_data,
				synced_at = EXCLUDED.synced_at
			RETURNING (xmax = 0)`,
			a.ExternalID, a.TenantID, a.TenantName, a.IntegrationID, a.Code, a.Name, a.Type, a.Class,
			a.Status, a.Description, a.CurrencyCode, a.TaxType, a.UpdatedDateUTC, rawJSON(a.RawData), a.SyncedAt,
		))
	})
}

func (r *accountingRepository) UpsertContacts(ctx context.Context, records []*models.Contact) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		c := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO accounting.contacts (
				contact_id, tenant_id, tenant_name, integration_id, name, first_name, last_name,
				email_address, contact_status, tax_number, is_supplier, is_customer,
				updated_date_utc, raw_data, synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (tenant_id, contact_id) DO UPDATE SET
				tenant_name = EXCLUDED.tenant_name, integration_id = EXCLUDED.integration_id,
				name = EXCLUDED.name, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
				email_address = EXCLUDED.email_address, contact_status = EXCLUDED.contact_status,
				tax_number = EXCLUDED.tax_number, is_supplier = EXCLUDED.is_supplier,
				is_customer = EXCLUDED.is_customer, updated_date_utc = EXCLUDED.updated_date_utc,
				raw_data = EXCLUDED.raw_data, synced_at = EXCLUDED.synced_at
			RETURNING (xmax = 0)`,
			c.ExternalID, c.TenantID, c.TenantName, c.IntegrationID, c.Name, c.FirstName, c.LastName,
			c.EmailAddress, c.ContactStatus, c.TaxNumber, c.IsSupplier, c.IsCustomer,
			c.UpdatedDateUTC, rawJSON(c.RawData), c.SyncedAt,
		))
	})
}

func (r *accountingRepository) UpsertInvoices(ctx context.Context, records []*models.Invoice) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		inv := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO accounting.invoices (
				invoice_id, tenant_id, tenant_name, integration_id, type, invoice_number, reference,
				contact_id, contact_name, date, due_date, status,
				sub_total, total_tax, total, amount_due, amount_paid, currency_code,
				updated_date_utc, raw_data, synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			ON CONFLICT (tenant_id, invoice_id) DO UPDATE SET
				tenant_name = EXCLUDED.tenant_name, integration_id = EXCLUDED.integration_id,
				type = EXCLUDED.type, invoice_number = EXCLUDED.invoice_number, reference = EXCLUDED.reference,
				contact_id = EXCLUDED.contact_id, contact_name = EXCLUDED.contact_name,
				date = EXCLUDED.date, due_date = EXCLUDED.due_date, status = EXCLUDED.status,
				sub_total = EXCLUDED.sub_total, total_tax = EXCLUDED.total_tax, total = EXCLUDED.total,
				amount_due = EXCLUDED.amount_due, amount_paid = EXCLUDED.amount_paid,
				currency_code = EXCLUDED.currency_code, updated_date_utc = EXCLUDED.updated_date_utc,
				raw_data = EXCLUDED.raw_data, synced_at = EXCLUDED.synced_at
			RETURNING (xmax = 0)`,
			inv.ExternalID, inv.TenantID, inv.TenantName, inv.IntegrationID, inv.Type, inv.InvoiceNumber, inv.Reference,
			inv.ContactID, inv.ContactName, inv.Date, inv.DueDate, inv.Status,
			inv.SubTotal, inv.TotalTax, inv.Total, inv.AmountDue, inv.AmountPaid, inv.CurrencyCode,
			inv.UpdatedDateUTC, rawJSON(inv.RawData), inv.SyncedAt,
		))
	})
}

func (r *accountingRepository) UpsertPayments(ctx context.Context, records []*models.Payment) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		p := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO accounting.payments (
				payment_id, tenant_id, tenant_name, integration_id, date, amount, reference,
				status, payment_type, is_reconciled, account_id, invoice_id,
				updated_date_utc, raw_data, synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (tenant_id, payment_id) DO UPDATE SET
				tenant_name = EXCLUDED.tenant_name, integration_id = EXCLUDED.integration_id,
				date = EXCLUDED.date, amount = EXCLUDED.amount, reference = EXCLUDED.reference,
				status = EXCLUDED.status, payment_type = EXCLUDED.payment_type,
				is_reconciled = EXCLUDED.is_reconciled, account_id = EXCLUDED.account_id,
				invoice_id = EXCLUDED.invoice_id, updated_date_utc = EXCLUDED.updated_date_utc,
				raw_data = EXCLUDED.raw_data, synced_at = EXCLUDED.synced_at
			RETURNING (xmax = 0)`,
			p.ExternalID, p.TenantID, p.TenantName, p.IntegrationID, p.Date, p.Amount, p.Reference,
			p.Status, p.PaymentType, p.IsReconciled, p.AccountID, p.InvoiceID,
			p.UpdatedDateUTC, rawJSON(p.RawData), p.SyncedAt,
		))
	})
}

func (r *accountingRepository) UpsertBankTransactions(ctx context.Context, records []*models.BankTransaction) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		t := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO accounting.bank_transactions (
				bank_transaction_id, tenant_id, tenant_name, integration_id, type,
				contact_id, contact_name, bank_account_id, date, status, is_reconciled,
				sub_total, total_tax, total, currency_code, updated_date_utc, raw_data, synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (tenant_id, bank_transaction_id) DO UPDATE SET
				tenant_name = EXCLUDED.tenant_name, integration_id = EXCLUDED.integration_id,
				type = EXCLUDED.type, contact_id = EXCLUDED.contact_id, contact_name = EXCLUDED.contact_name,
				bank_account_id = EXCLUDED.bank_account_id, date = EXCLUDED.date, status = EXCLUDED.status,
				is_reconciled = EXCLUDED.is_reconciled, sub_total = EXCLUDED.sub_total,
				total_tax = EXCLUDED.total_tax, total = EXCLUDED.total,
				currency_code = EXCLUDED.currency_code, updated_date_utc = EXCLUDED.updated_date_utc,
				raw_data = EXCLUDED.raw_data, synced_at = EXCLUDED.synced_at
			RETURNING (xmax = 0)`,
			t.ExternalID, t.TenantID, t.TenantName, t.IntegrationID, t.Type,
			t.ContactID, t.ContactName, t.BankAccountID, t.Date, t.Status, t.IsReconciled,
			t.SubTotal, t.TotalTax, t.Total, t.CurrencyCode, t.UpdatedDateUTC, rawJSON(t.RawData), t.SyncedAt,
		))
	})
}

// UpsertJournals writes each journal and its lines under one savepoint, so a
// bad line fails the whole journal rather than leaving it half-written.
func (r *accountingRepository) UpsertJournals(ctx context.Context, records []*models.Journal) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		j := records[i]
		inserted, err := scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO accounting.journals (
				journal_id, tenant_id, tenant_name, integration_id, journal_date, journal_number,
				reference, source_id, source_type, created_date_utc, raw_data, synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (tenant_id, journal_id) DO UPDATE SET
				tenant_name = EXCLUDED.tenant_name, integration_id = EXCLUDED.integration_id,
				journal_date = EXCLUDED.journal_date, journal_number = EXCLUDED.journal_number,
				reference = EXCLUDED.reference, source_id = EXCLUDED.source_id,
				source_type = EXCLUDED.source_type, created_date_utc = EXCLUDED.created_date_utc,
				raw_data = EXCLUDED.raw_data, synced_at = EXCLUDED.synced_at
			RETURNING (xmax = 0)`,
			j.ExternalID, j.TenantID, j.TenantName, j.IntegrationID, j.JournalDate, j.JournalNumber,
			j.Reference, j.SourceID, j.SourceType, j.CreatedDateUTC, rawJSON(j.RawData), j.SyncedAt,
		))
		if err != nil {
			return false, err
		}
		for _, line := range j.Lines {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO accounting.journal_lines (
					journal_line_id, journal_id, tenant_id, integration_id, account_id, account_code,
					account_name, description, net_amount, gross_amount, tax_amount, tax_type, synced_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				ON CONFLICT (tenant_id, journal_line_id) DO UPDATE SET
					journal_id = EXCLUDED.journal_id, integration_id = EXCLUDED.integration_id,
					account_id = EXCLUDED.account_id, account_code = EXCLUDED.account_code,
					account_name = EXCLUDED.account_name, description = EXCLUDED.description,
					net_amount = EXCLUDED.net_amount, gross_amount = EXCLUDED.gross_amount,
					tax_amount = EXCLUDED.tax_amount, tax_type = EXCLUDED.tax_type,
					synced_at = EXCLUDED.synced_at`,
				line.ExternalID, line.JournalID, line.TenantID, line.IntegrationID, line.AccountID, line.AccountCode,
				line.AccountName, line.Description, line.NetAmount, line.GrossAmount, line.TaxAmount, line.TaxType, line.SyncedAt,
			)
			if err != nil {
				return false, err
			}
		}
		return inserted, nil
	})
}
