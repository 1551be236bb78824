package normalize

import (
	"testing"
	"time"
)

func testTags() TenantTags {
	name := "WestSide Dental Ltd"
	integ := "int-1"
	return TenantTags{TenantID: "tenant-1", TenantName: &name, IntegrationID: &integ}
}

func TestBuildAccount(t *testing.T) {
	now := time.Now().UTC()
	rec := map[string]any{
		"AccountID":      "acc-1",
		"Name":           "Sales",
		"Code":           "200",
		"Type":           "REVENUE",
		"Status":         "ACTIVE",
		"UpdatedDateUTC": "/Date(1700000000000+0000)/",
	}
	a := BuildAccount(testTags(), rec, now)
	if a == nil {
		t.Fatal("expected account")
	}
	if a.ExternalID != "acc-1" || a.TenantID != "tenant-1" || a.Name != "Sales" {
		t.Errorf("identity wrong: %+v", a)
	}
	if a.UpdatedDateUTC == nil || a.UpdatedDateUTC.Year() != 2023 {
		t.Errorf("UpdatedDateUTC = %v", a.UpdatedDateUTC)
	}
	if a.IntegrationID == nil || *a.IntegrationID != "int-1" {
		t.Errorf("integration tag not stamped: %v", a.IntegrationID)
	}

	if a := BuildAccount(testTags(), map[string]any{"Name": "No ID"}, now); a != nil {
		t.Fatalf("expected nil without AccountID, got %+v", a)
	}
}

func TestBuildInvoiceFlattensContact(t *testing.T) {
	now := time.Now().UTC()
	rec := map[string]any{
		"InvoiceID":     "inv-1",
		"InvoiceNumber": "INV-0042",
		"Contact": map[string]any{
			"ContactID": "con-1",
			"Name":      "Dr Payne",
		},
		"Date":      "/Date(1700000000000+0000)/",
		"Total":     150.0,
		"AmountDue": 25.0,
	}
	inv := BuildInvoice(testTags(), rec, now)
	if inv == nil {
		t.Fatal("expected invoice")
	}
	if inv.ContactID == nil || *inv.ContactID != "con-1" {
		t.Errorf("ContactID = %v", inv.ContactID)
	}
	if inv.ContactName == nil || *inv.ContactName != "Dr Payne" {
		t.Errorf("ContactName = %v", inv.ContactName)
	}
	if inv.Date == nil || !inv.Date.Equal(time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", inv.Date)
	}
	if inv.Total == nil || inv.Total.String() != "150" {
		t.Errorf("Total = %v", inv.Total)
	}

	// Missing contact leaves both fields nil instead of panicking.
	inv = BuildInvoice(testTags(), map[string]any{"InvoiceID": "inv-2"}, now)
	if inv == nil || inv.ContactID != nil || inv.ContactName != nil {
		t.Errorf("expected nil contact fields: %+v", inv)
	}
}

func TestBuildPaymentNestedIDs(t *testing.T) {
	now := time.Now().UTC()
	rec := map[string]any{
		"PaymentID":    "pay-1",
		"Amount":       99.95,
		"IsReconciled": true,
		"Account":      map[string]any{"AccountID": "acc-1"},
		"Invoice":      map[string]any{"InvoiceID": "inv-1"},
	}
	p := BuildPayment(testTags(), rec, now)
	if p == nil {
		t.Fatal("expected payment")
	}
	if p.AccountID == nil || *p.AccountID != "acc-1" {
		t.Errorf("AccountID = %v", p.AccountID)
	}
	if p.InvoiceID == nil || *p.InvoiceID != "inv-1" {
		t.Errorf("InvoiceID = %v", p.InvoiceID)
	}
	if !p.IsReconciled {
		t.Error("IsReconciled not carried")
	}
}

func TestBuildJournalLines(t *testing.T) {
	now := time.Now().UTC()
	rec := map[string]any{
		"JournalID":     "jrn-1",
		"JournalNumber": 7,
		"JournalLines": []any{
			map[string]any{
				"JournalLineID": "jl-1",
				"AccountCode":   "200",
				"NetAmount":     100.0,
				"TaxAmount":     20.0,
			},
			map[string]any{
				// no line id, dropped
				"AccountCode": "400",
			},
			"not a map",
		},
	}
	j := BuildJournal(testTags(), rec, now)
	if j == nil {
		t.Fatal("expected journal")
	}
	if j.JournalNumber == nil || *j.JournalNumber != 7 {
		t.Errorf("JournalNumber = %v", j.JournalNumber)
	}
	if len(j.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(j.Lines))
	}
	line := j.Lines[0]
	if line.ExternalID != "jl-1" || line.JournalID != "jrn-1" || line.TenantID != "tenant-1" {
		t.Errorf("line identity wrong: %+v", line)
	}
	if line.NetAmount == nil || line.NetAmount.String() != "100" {
		t.Errorf("NetAmount = %v", line.NetAmount)
	}
}

func TestBuildBankTransaction(t *testing.T) {
	now := time.Now().UTC()
	rec := map[string]any{
		"BankTransactionID": "bt-1",
		"Type":              "SPEND",
		"Contact":           map[string]any{"ContactID": "con-1", "Name": "Supplies Co"},
		"BankAccount":       map[string]any{"AccountID": "acc-9"},
		"Total":             42.0,
	}
	txn := BuildBankTransaction(testTags(), rec, now)
	if txn == nil {
		t.Fatal("expected bank transaction")
	}
	if txn.BankAccountID == nil || *txn.BankAccountID != "acc-9" {
		t.Errorf("BankAccountID = %v", txn.BankAccountID)
	}
	if txn.ContactName == nil || *txn.ContactName != "Supplies Co" {
		t.Errorf("ContactName = %v", txn.ContactName)
	}
}
