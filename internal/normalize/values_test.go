package normalize

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCleanDropsNonFiniteFloats(t *testing.T) {
	tests := []struct {
		name string
		in   any
		nil_ bool
	}{
		{name: "nan", in: math.NaN(), nil_: true},
		{name: "pos inf", in: math.Inf(1), nil_: true},
		{name: "neg inf", in: math.Inf(-1), nil_: true},
		{name: "nan32", in: float32(math.NaN()), nil_: true},
		{name: "finite float", in: 1.5},
		{name: "string", in: "x"},
		{name: "int", in: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			if tt.nil_ && got != nil {
				t.Fatalf("Clean(%v) = %v, want nil", tt.in, got)
			}
			if !tt.nil_ && got == nil {
				t.Fatalf("Clean(%v) = nil, want value", tt.in)
			}
		})
	}
}

func TestStr(t *testing.T) {
	if got := Str("  hello "); got == nil || *got != "hello" {
		t.Errorf("Str trims whitespace, got %v", got)
	}
	if got := Str(""); got != nil {
		t.Errorf("Str of empty string = %v, want nil", got)
	}
	if got := Str("   "); got != nil {
		t.Errorf("Str of blank string = %v, want nil", got)
	}
	if got := Str(math.NaN()); got != nil {
		t.Errorf("Str of NaN = %v, want nil", got)
	}
	if got := Str(float64(42)); got == nil || *got != "42" {
		t.Errorf("Str of whole float = %v, want 42", got)
	}
	if got := Str(nil); got != nil {
		t.Errorf("Str of nil = %v, want nil", got)
	}
}

func TestBool(t *testing.T) {
	trueCases := []any{true, "true", "TRUE", "1", "yes", "Active", 1, int64(3), 2.5}
	for _, in := range trueCases {
		if got := Bool(in); got == nil || !*got {
			t.Errorf("Bool(%v) = %v, want true", in, got)
		}
	}
	falseCases := []any{false, "false", "0", "no", "inactive", 0, 0.0}
	for _, in := range falseCases {
		if got := Bool(in); got == nil || *got {
			t.Errorf("Bool(%v) = %v, want false", in, got)
		}
	}
	if got := Bool(nil); got != nil {
		t.Errorf("Bool(nil) = %v, want nil", got)
	}
	if got := Bool(math.NaN()); got != nil {
		t.Errorf("Bool(NaN) = %v, want nil", got)
	}
}

func TestTruthy(t *testing.T) {
	for _, in := range []any{true, 1, int64(1), 1.0, "true", "1", "yes", " YES "} {
		if !Truthy(in) {
			t.Errorf("Truthy(%v) = false, want true", in)
		}
	}
	for _, in := range []any{false, 0, 2, "active", "no", "", nil, math.NaN()} {
		if Truthy(in) {
			t.Errorf("Truthy(%v) = true, want false", in)
		}
	}
}

func TestDecimal(t *testing.T) {
	if got := Decimal("12.50"); got == nil || got.String() != "12.5" {
		t.Errorf("Decimal string = %v", got)
	}
	if got := Decimal(3); got == nil || got.String() != "3" {
		t.Errorf("Decimal int = %v", got)
	}
	if got := Decimal("not a number"); got != nil {
		t.Errorf("Decimal garbage = %v, want nil", got)
	}
	if got := Decimal(math.NaN()); got != nil {
		t.Errorf("Decimal NaN = %v, want nil", got)
	}
}

func TestIsDeltaMetadataRow(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]any
		want bool
	}{
		{
			name: "commit info only",
			row:  map[string]any{"commitInfo": map[string]any{"ts": 1}, "RecordNum": nil},
			want: true,
		},
		{
			name: "meta column with NaN data cells",
			row:  map[string]any{"add": "part-0001", "RecordNum": math.NaN(), "Name": math.NaN()},
			want: true,
		},
		{
			name: "meta column alongside real data",
			row:  map[string]any{"txn": "t1", "RecordNum": "123"},
			want: false,
		},
		{
			name: "plain data row",
			row:  map[string]any{"RecordNum": "123", "Name": "Smith"},
			want: false,
		},
		{
			name: "empty row",
			row:  map[string]any{},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDeltaMetadataRow(tt.row); got != tt.want {
				t.Fatalf("IsDeltaMetadataRow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRowJSONDropsEmptyCells(t *testing.T) {
	raw := RowJSON(map[string]any{
		"keep": "value",
		"nan":  math.NaN(),
		"nil":  nil,
		"num":  1.5,
	})
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["keep"] != "value" || m["num"] != 1.5 {
		t.Errorf("kept values wrong: %v", m)
	}
	if _, ok := m["nan"]; ok {
		t.Error("NaN cell survived serialization")
	}
	if _, ok := m["nil"]; ok {
		t.Error("nil cell survived serialization")
	}
}

func TestMergeRawJSON(t *testing.T) {
	base := RowJSON(map[string]any{"PatientKey": "p1"})
	merged := MergeRawJSON(base, "debtor4", map[string]any{"RecordNum": "d1", "empty": math.NaN()})

	var m map[string]any
	if err := json.Unmarshal(merged, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["PatientKey"] != "p1" {
		t.Errorf("base key lost: %v", m)
	}
	nested, ok := m["debtor4"].(map[string]any)
	if !ok {
		t.Fatalf("debtor4 not nested: %v", m)
	}
	if nested["RecordNum"] != "d1" {
		t.Errorf("nested value wrong: %v", nested)
	}
	if _, ok := nested["empty"]; ok {
		t.Error("NaN cell survived nesting")
	}
}
