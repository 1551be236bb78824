package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The accounting API serializes dates as /Date(1719964800000+0000)/ where the
// number is milliseconds since the Unix epoch. Newer endpoints return ISO 8601
// strings instead, so both forms are accepted everywhere a date appears.
var wireDatePattern = regexp.MustCompile(`^/Date\((\d+)([+-]\d{4})?\)/$`)

// ParseWireDate parses an accounting API date value to a UTC midnight date.
// Returns nil rather than an error on anything unparseable, a bad date inside
// one record must not fail the batch.
func ParseWireDate(val any) *time.Time {
	t := ParseWireDateTime(val)
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// ParseWireDateTime parses an accounting API datetime value.
func ParseWireDateTime(val any) *time.Time {
	val = Clean(val)
	if val == nil {
		return nil
	}
	if t, ok := val.(time.Time); ok {
		u := t.UTC()
		return &u
	}
	s, ok := val.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)

	if m := wireDatePattern.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil
		}
		t := time.UnixMilli(ms).UTC()
		return &t
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// ParseLakeTimestamp interprets a value read from a columnar table as a
// timestamp. The lake stores these as native timestamps, epoch integers, or
// ISO strings depending on the upstream export.
func ParseLakeTimestamp(val any) *time.Time {
	val = Clean(val)
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case time.Time:
		u := v.UTC()
		return &u
	case int64:
		return epochToTime(v)
	case int:
		return epochToTime(int64(v))
	case float64:
		return epochToTime(int64(v))
	case string:
		return ParseWireDateTime(v)
	}
	return nil
}

// epochToTime treats large magnitudes as micro- or milliseconds. Parquet
// timestamp columns decode to epoch integers whose unit depends on the
// writer's logical type.
func epochToTime(n int64) *time.Time {
	if n == 0 {
		return nil
	}
	var t time.Time
	switch {
	case n >= 1e16 || n <= -1e16:
		t = time.UnixMicro(n).UTC()
	case n >= 1e12 || n <= -1e12:
		t = time.UnixMilli(n).UTC()
	default:
		t = time.Unix(n, 0).UTC()
	}
	return &t
}

// ParseClockTime normalizes an "HH:MM" or "HH:MM:SS" string, nil on anything
// else.
func ParseClockTime(val any) *string {
	s := Str(val)
	if s == nil || !strings.Contains(*s, ":") {
		return nil
	}
	parts := strings.Split(*s, ":")
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil
	}
	out := strconv.Itoa(hour/10) + strconv.Itoa(hour%10) + ":" + strconv.Itoa(minute/10) + strconv.Itoa(minute%10)
	return &out
}
