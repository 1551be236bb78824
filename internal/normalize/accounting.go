package normalize

import (
	"time"

	"github.com/workfin/practice-api/internal/models"
)

// Builders for the accounting entities fetched from the accounting API. The
// input is the decoded JSON payload of one record; returns nil when the
// record's id field is missing.

// TenantTags carries the denormalized scope columns stamped onto every
// accounting record.
type TenantTags struct {
	TenantID      string
	TenantName    *string
	IntegrationID *string
}

func BuildAccount(tags TenantTags, rec map[string]any, now time.Time) *models.Account {
	extID := Str(rec["AccountID"])
	if extID == nil {
		return nil
	}
	name := Str(rec["Name"])
	a := &models.Account{
		ExternalID:     *extID,
		TenantID:       tags.TenantID,
		TenantName:     tags.TenantName,
		IntegrationID:  tags.IntegrationID,
		Code:           Str(rec["Code"]),
		Type:           Str(rec["Type"]),
		Class:          Str(rec["Class"]),
		Status:         Str(rec["Status"]),
		Description:    Str(rec["Description"]),
		CurrencyCode:   Str(rec["CurrencyCode"]),
		TaxType:        Str(rec["TaxType"]),
		UpdatedDateUTC: ParseWireDateTime(rec["UpdatedDateUTC"]),
		RawData:        RowJSON(rec),
		SyncedAt:       now,
	}
	if name != nil {
		a.Name = *name
	}
	return a
}

func BuildContact(tags TenantTags, rec map[string]any, now time.Time) *models.Contact {
	extID := Str(rec["ContactID"])
	if extID == nil {
		return nil
	}
	name := Str(rec["Name"])
	c := &models.Contact{
		ExternalID:     *extID,
		TenantID:       tags.TenantID,
		TenantName:     tags.TenantName,
		IntegrationID:  tags.IntegrationID,
		FirstName:      Str(rec["FirstName"]),
		LastName:       Str(rec["LastName"]),
		EmailAddress:   Str(rec["EmailAddress"]),
		ContactStatus:  Str(rec["ContactStatus"]),
		TaxNumber:      Str(rec["TaxNumber"]),
		UpdatedDateUTC: ParseWireDateTime(rec["UpdatedDateUTC"]),
		RawData:        RowJSON(rec),
		SyncedAt:       now,
	}
	if name != nil {
		c.Name = *name
	}
	if b := Bool(rec["IsSupplier"]); b != nil {
		c.IsSupplier = *b
	}
	if b := Bool(rec["IsCustomer"]); b != nil {
		c.IsCustomer = *b
	}
	return c
}

// BuildInvoice flattens the embedded contact to its id and display name.
func BuildInvoice(tags TenantTags, rec map[string]any, now time.Time) *models.Invoice {
	extID := Str(rec["InvoiceID"])
	if extID == nil {
		return nil
	}
	contact := nestedMap(rec, "Contact")
	inv := &models.Invoice{
		ExternalID:     *extID,
		TenantID:       tags.TenantID,
		TenantName:     tags.TenantName,
		IntegrationID:  tags.IntegrationID,
		Type:           Str(rec["Type"]),
		InvoiceNumber:  Str(rec["InvoiceNumber"]),
		Reference:      Str(rec["Reference"]),
		ContactID:      Str(contact["ContactID"]),
		ContactName:    Str(contact["Name"]),
		Date:           ParseWireDate(rec["Date"]),
		DueDate:        ParseWireDate(rec["DueDate"]),
		Status:         Str(rec["Status"]),
		SubTotal:       Decimal(rec["SubTotal"]),
		TotalTax:       Decimal(rec["TotalTax"]),
		Total:          Decimal(rec["Total"]),
		AmountDue:      Decimal(rec["AmountDue"]),
		AmountPaid:     Decimal(rec["AmountPaid"]),
		CurrencyCode:   Str(rec["CurrencyCode"]),
		UpdatedDateUTC: ParseWireDateTime(rec["UpdatedDateUTC"]),
		RawData:        RowJSON(rec),
		SyncedAt:       now,
	}
	return inv
}

func BuildPayment(tags TenantTags, rec map[string]any, now time.Time) *models.Payment {
	extID := Str(rec["PaymentID"])
	if extID == nil {
		return nil
	}
	p := &models.Payment{
		ExternalID:     *extID,
		TenantID:       tags.TenantID,
		TenantName:     tags.TenantName,
		IntegrationID:  tags.IntegrationID,
		Date:           ParseWireDate(rec["Date"]),
		Amount:         Decimal(rec["Amount"]),
		Reference:      Str(rec["Reference"]),
		Status:         Str(rec["Status"]),
		PaymentType:    Str(rec["PaymentType"]),
		AccountID:      Str(nestedMap(rec, "Account")["AccountID"]),
		InvoiceID:      Str(nestedMap(rec, "Invoice")["InvoiceID"]),
		UpdatedDateUTC: ParseWireDateTime(rec["UpdatedDateUTC"]),
		RawData:        RowJSON(rec),
		SyncedAt:       now,
	}
	if b := Bool(rec["IsReconciled"]); b != nil {
		p.IsReconciled = *b
	}
	return p
}

func BuildBankTransaction(tags TenantTags, rec map[string]any, now time.Time) *models.BankTransaction {
	extID := Str(rec["BankTransactionID"])
	if extID == nil {
		return nil
	}
	contact := nestedMap(rec, "Contact")
	txn := &models.BankTransaction{
		ExternalID:     *extID,
		TenantID:       tags.TenantID,
		TenantName:     tags.TenantName,
		IntegrationID:  tags.IntegrationID,
		Type:           Str(rec["Type"]),
		ContactID:      Str(contact["ContactID"]),
		ContactName:    Str(contact["Name"]),
		BankAccountID:  Str(nestedMap(rec, "BankAccount")["AccountID"]),
		Date:           ParseWireDate(rec["Date"]),
		Status:         Str(rec["Status"]),
		SubTotal:       Decimal(rec["SubTotal"]),
		TotalTax:       Decimal(rec["TotalTax"]),
		Total:          Decimal(rec["Total"]),
		CurrencyCode:   Str(rec["CurrencyCode"]),
		UpdatedDateUTC: ParseWireDateTime(rec["UpdatedDateUTC"]),
		RawData:        RowJSON(rec),
		SyncedAt:       now,
	}
	if b := Bool(rec["IsReconciled"]); b != nil {
		txn.IsReconciled = *b
	}
	return txn
}

// BuildJournal maps one journal together with its lines. Lines without their
// own id are dropped, the journal itself still syncs.
func BuildJournal(tags TenantTags, rec map[string]any, now time.Time) *models.Journal {
	extID := Str(rec["JournalID"])
	if extID == nil {
		return nil
	}
	j := &models.Journal{
		ExternalID:     *extID,
		TenantID:       tags.TenantID,
		TenantName:     tags.TenantName,
		IntegrationID:  tags.IntegrationID,
		JournalDate:    ParseWireDate(rec["JournalDate"]),
		JournalNumber:  Int(rec["JournalNumber"]),
		Reference:      Str(rec["Reference"]),
		SourceID:       Str(rec["SourceID"]),
		SourceType:     Str(rec["SourceType"]),
		CreatedDateUTC: ParseWireDateTime(rec["CreatedDateUTC"]),
		RawData:        RowJSON(rec),
		SyncedAt:       now,
	}
	rawLines, _ := rec["JournalLines"].([]any)
	for _, rl := range rawLines {
		lineRec, ok := rl.(map[string]any)
		if !ok {
			continue
		}
		lineID := Str(lineRec["JournalLineID"])
		if lineID == nil {
			continue
		}
		j.Lines = append(j.Lines, models.JournalLine{
			ExternalID:    *lineID,
			JournalID:     *extID,
			TenantID:      tags.TenantID,
			IntegrationID: tags.IntegrationID,
			AccountID:     Str(lineRec["AccountID"]),
			AccountCode:   Str(lineRec["AccountCode"]),
			AccountName:   Str(lineRec["AccountName"]),
			Description:   Str(lineRec["Description"]),
			NetAmount:     Decimal(lineRec["NetAmount"]),
			GrossAmount:   Decimal(lineRec["GrossAmount"]),
			TaxAmount:     Decimal(lineRec["TaxAmount"]),
			TaxType:       Str(lineRec["TaxType"]),
			SyncedAt:      now,
		})
	}
	return j
}

func nestedMap(rec map[string]any, key string) map[string]any {
	m, _ := rec[key].(map[string]any)
	return m
}
