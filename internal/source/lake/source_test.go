package lake

import (
	"bytes"
	"context"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/source"
)

// memStore is an in-memory BlobStore.
type memStore struct {
	objects map[string][]byte
}

func (s *memStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for name := range s.objects {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *memStore) Read(ctx context.Context, name string) ([]byte, error) {
	return s.objects[name], nil
}

type patientRow struct {
	PatientKey      string  `parquet:"PatientKey"`
	PatientName     string  `parquet:"Patient_Name"`
	IntegrationID   *string `parquet:"integration_id,optional"`
	IntegrationName *string `parquet:"IntegrationName,optional"`
}

type plainRow struct {
	RecordNum string `parquet:"RecordNum"`
	Service   string `parquet:"service"`
}

type siteRow struct {
	ProviderCode string  `parquet:"ProviderCode"`
	SiteID       *string `parquet:"SiteId,optional"`
}

func writeParquet[T any](t *testing.T, rows []T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write parquet rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close parquet writer: %v", err)
	}
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

func newTestSource(store BlobStore, integrationID *string) *Source {
	return NewSource(store, "gold/soe", integrationID, zerolog.Nop())
}

func TestFetchSkipsDeltaLogObjects(t *testing.T) {
	data := writeParquet(t, []plainRow{
		{RecordNum: "a1", Service: "Exam"},
		{RecordNum: "a2", Service: "Scale"},
	})
	store := &memStore{objects: map[string][]byte{
		"gold/soe/vw_Appointments/part-0000.parquet":                data,
		"gold/soe/vw_Appointments/_delta_log/00000000.json":         []byte("{}"),
		"gold/soe/vw_Appointments/_delta_log/checkpoint.parquet":    []byte("not read"),
		"gold/soe/vw_Appointments/part-0001.parquet.crc":            []byte("not parquet"),
		"gold/soe/vw_Appointments/_committed_170000000000000000000": []byte("marker"),
	}}

	var records []source.RawRecord
	err := newTestSource(store, nil).Fetch(context.Background(), models.EntityAppointments, func(rec source.RawRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["RecordNum"] != "a1" || records[0]["service"] != "Exam" {
		t.Errorf("record = %v", records[0])
	}
}

func TestFetchUnsupportedEntity(t *testing.T) {
	store := &memStore{objects: map[string][]byte{}}
	err := newTestSource(store, nil).Fetch(context.Background(), models.EntityInvoices, func(rec source.RawRecord) error { return nil })
	if err == nil || source.IsTransient(err) {
		t.Fatalf("err = %v, want terminal unsupported error", err)
	}
}

func TestIntegrationFilter(t *testing.T) {
	data := writeParquet(t, []patientRow{
		{PatientKey: "p1", PatientName: "Smith", IntegrationID: strPtr("int-1")},
		{PatientKey: "p2", PatientName: "Jones", IntegrationID: strPtr("int-2")},
		{PatientKey: "p3", PatientName: "Nulled", IntegrationID: nil},
	})
	store := &memStore{objects: map[string][]byte{
		"gold/soe/vw_DimPatients/part-0000.parquet": data,
	}}

	var keys []string
	err := newTestSource(store, strPtr("int-1")).Fetch(context.Background(), models.EntityPatients, func(rec source.RawRecord) error {
		keys = append(keys, rec["PatientKey"].(string))
		return nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(keys) != 1 || keys[0] != "p1" {
		t.Fatalf("keys = %v, want [p1]", keys)
	}
}

func TestIntegrationFilterFallsBackToSiteID(t *testing.T) {
	// Provider tables are exported with SiteId instead of integration_id.
	data := writeParquet(t, []siteRow{
		{ProviderCode: "dr-1", SiteID: strPtr("int-1")},
		{ProviderCode: "dr-2", SiteID: strPtr("int-2")},
		{ProviderCode: "dr-3", SiteID: nil},
	})
	store := &memStore{objects: map[string][]byte{
		"gold/soe/vw_providertimes_final/part-0000.parquet": data,
	}}

	var codes []string
	err := newTestSource(store, strPtr("int-1")).Fetch(context.Background(), models.EntityProviders, func(rec source.RawRecord) error {
		codes = append(codes, rec["ProviderCode"].(string))
		return nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(codes) != 1 || codes[0] != "dr-1" {
		t.Fatalf("codes = %v, want [dr-1]", codes)
	}
}

func TestIntegrationFilterPassThroughWithoutColumn(t *testing.T) {
	// Tables exported without an integration_id column are read unfiltered.
	data := writeParquet(t, []plainRow{
		{RecordNum: "a1", Service: "Exam"},
		{RecordNum: "a2", Service: "Scale"},
	})
	store := &memStore{objects: map[string][]byte{
		"gold/soe/vw_Appointments/part-0000.parquet": data,
	}}

	n := 0
	err := newTestSource(store, strPtr("int-1")).Fetch(context.Background(), models.EntityAppointments, func(rec source.RawRecord) error {
		n++
		return nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != 2 {
		t.Fatalf("records = %d, want 2 (unfiltered)", n)
	}
}

func TestPing(t *testing.T) {
	store := &memStore{objects: map[string][]byte{
		"gold/soe/vw_Appointments/part-0000.parquet": nil,
		"gold/soe/vw_DimPatients/part-0000.parquet":  nil,
	}}
	result, err := newTestSource(store, nil).Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if len(result.Tables) != 2 {
		t.Errorf("tables = %v", result.Tables)
	}

	empty := &memStore{objects: map[string][]byte{}}
	if _, err := newTestSource(empty, nil).Ping(context.Background()); err == nil {
		t.Fatal("expected error for empty lake")
	}
}

func TestListIntegrations(t *testing.T) {
	patients := writeParquet(t, []patientRow{
		{PatientKey: "p1", IntegrationID: strPtr("int-1"), IntegrationName: strPtr("WestSide")},
		{PatientKey: "p2", IntegrationID: strPtr("int-2"), IntegrationName: strPtr("Harbour")},
		{PatientKey: "p3", IntegrationID: strPtr("int-1"), IntegrationName: strPtr("WestSide")},
		{PatientKey: "p4", IntegrationID: strPtr("int-3")}, // name falls back to id
	})
	appointments := writeParquet(t, []plainRow{{RecordNum: "a1", Service: "Exam"}})
	store := &memStore{objects: map[string][]byte{
		"gold/soe/vw_DimPatients/part-0000.parquet":  patients,
		"gold/soe/vw_Appointments/part-0000.parquet": appointments,
	}}

	got, err := newTestSource(store, nil).ListIntegrations(context.Background())
	if err != nil {
		t.Fatalf("ListIntegrations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("integrations = %+v, want 3", got)
	}
	// Sorted by name: Harbour, WestSide, int-3.
	if got[0].IntegrationName != "Harbour" || got[1].IntegrationName != "WestSide" || got[2].IntegrationName != "int-3" {
		t.Errorf("order = %v %v %v", got[0].IntegrationName, got[1].IntegrationName, got[2].IntegrationName)
	}
	if got[2].IntegrationID != "int-3" {
		t.Errorf("fallback id = %v", got[2].IntegrationID)
	}
	for _, li := range got {
		if li.SourceTable == nil || *li.SourceTable != "vw_DimPatients" {
			t.Errorf("source table = %v", li.SourceTable)
		}
	}
}
