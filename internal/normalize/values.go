package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Columnar readers surface missing cells as NaN rather than nil, and Delta
// tables interleave transaction-log metadata rows with data rows. Everything
// that leaves this package is JSON- and SQL-safe.

// deltaMetaColumns are the Delta Lake transaction-log columns that mark a
// metadata row when every data column is empty.
var deltaMetaColumns = map[string]bool{
	"txn":        true,
	"add":        true,
	"remove":     true,
	"metaData":   true,
	"protocol":   true,
	"commitInfo": true,
}

// Clean maps NaN and Inf floats to nil so they never reach the database or a
// JSON encoder. All other values pass through unchanged.
func Clean(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return v
	}
	return val
}

// Str converts a cleaned value to its string form, nil when empty.
func Str(val any) *string {
	val = Clean(val)
	if val == nil {
		return nil
	}
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		s = fmt.Sprintf("%v", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Int converts a cleaned value to an int, nil when absent or unparseable.
func Int(val any) *int {
	val = Clean(val)
	if val == nil {
		return nil
	}
	var n int
	switch v := val.(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	case float32:
		n = int(v)
	case bool:
		if v {
			n = 1
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		n = int(f)
	default:
		return nil
	}
	return &n
}

// Float converts a cleaned value to a float64, nil when absent or unparseable.
func Float(val any) *float64 {
	val = Clean(val)
	if val == nil {
		return nil
	}
	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// Bool converts a cleaned value to a bool, nil when absent. Strings follow the
// source system's truthy vocabulary.
func Bool(val any) *bool {
	val = Clean(val)
	if val == nil {
		return nil
	}
	var b bool
	switch v := val.(type) {
	case bool:
		b = v
	case int:
		b = v != 0
	case int32:
		b = v != 0
	case int64:
		b = v != 0
	case float64:
		b = v != 0
	case float32:
		b = v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "active":
			b = true
		default:
			b = false
		}
	default:
		return nil
	}
	return &b
}

// Decimal converts a cleaned numeric value to a decimal, nil when absent.
func Decimal(val any) *decimal.Decimal {
	val = Clean(val)
	if val == nil {
		return nil
	}
	var d decimal.Decimal
	switch v := val.(type) {
	case decimal.Decimal:
		d = v
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int32:
		d = decimal.NewFromInt32(v)
	case int64:
		d = decimal.NewFromInt(v)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}
	return &d
}

// Truthy reports whether a raw flag column is set. Numeric one, boolean true,
// and the strings "true", "1", "yes" all count.
func Truthy(val any) bool {
	val = Clean(val)
	if val == nil {
		return false
	}
	switch v := val.(type) {
	case bool:
		return v
	case int:
		return v == 1
	case int32:
		return v == 1
	case int64:
		return v == 1
	case float64:
		return v == 1
	case float32:
		return v == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

// RowJSON serializes a raw row for the raw_data column. Empty cells are
// dropped and timestamps rendered in RFC 3339 so the payload round-trips
// through jsonb.
func RowJSON(row map[string]any) json.RawMessage {
	cleaned := make(map[string]any, len(row))
	for k, v := range row {
		v = Clean(v)
		if v == nil {
			continue
		}
		if t, ok := v.(time.Time); ok {
			cleaned[k] = t.UTC().Format(time.RFC3339)
			continue
		}
		cleaned[k] = v
	}
	data, err := json.Marshal(cleaned)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// MergeRawJSON nests extra under key inside an existing raw_data payload.
func MergeRawJSON(base json.RawMessage, key string, extra map[string]any) json.RawMessage {
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil || m == nil {
		m = map[string]any{}
	}
	var nested map[string]any
	if err := json.Unmarshal(RowJSON(extra), &nested); err == nil {
		m[key] = nested
	}
	data, err := json.Marshal(m)
	if err != nil {
		return base
	}
	return data
}

// IsDeltaMetadataRow reports whether a row is a Delta Lake transaction-log
// row: at least one log column present and every data column empty.
func IsDeltaMetadataRow(row map[string]any) bool {
	hasMeta := false
	for k := range row {
		if deltaMetaColumns[k] {
			hasMeta = true
			break
		}
	}
	if !hasMeta {
		return false
	}
	for k, v := range row {
		if deltaMetaColumns[k] {
			continue
		}
		if Clean(v) != nil {
			return false
		}
	}
	return true
}
