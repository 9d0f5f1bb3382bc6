package normalize

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// ISOLayout renders instants the way the dashboard stores them
// (millisecond precision, always UTC with a Z suffix).
const ISOLayout = "2006-01-02T15:04:05.000Z"

// serialEpoch is day 0 of spreadsheet serial dates. It sits two days before
// 1900-01-01 to absorb the historical 1900 leap-year bug.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxSerial keeps serial arithmetic inside time.Duration range.
const maxSerial = 100000

var (
	meridiem = regexp.MustCompile(`(\d)\s*([ap])\.?\s?m\.?`)
	dayFirst = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(.*)$`)
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 3:04 PM",
	"2006-01-02",
}

// SerialToTime converts a spreadsheet serial date (days since 1899-12-30,
// fractional part is the time of day) to a UTC instant with millisecond
// precision.
func SerialToTime(serial float64) time.Time {
	ms := math.Round(serial * float64(24*time.Hour/time.Millisecond))
	return serialEpoch.Add(time.Duration(ms) * time.Millisecond)
}

// ParseTimestamp converts a cell value into a UTC instant.
//
// Numbers are serial dates. Strings are read as DD/MM/YYYY (never MM/DD),
// optionally followed by a time with AM/PM or a.m./p.m. markers, or as
// ISO-like dates; zone-less strings are interpreted in loc. Anything else,
// including blank cells and the zero serial, yields nil.
func ParseTimestamp(v any, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case float64:
		return serialTimestamp(x)
	case int:
		return serialTimestamp(float64(x))
	case int64:
		return serialTimestamp(float64(x))
	case string:
		return stringTimestamp(x, loc)
	default:
		return nil
	}
}

func serialTimestamp(serial float64) *time.Time {
	if math.IsNaN(serial) || serial <= 0 || serial > maxSerial {
		return nil
	}
	t := SerialToTime(serial)
	return &t
}

func stringTimestamp(raw string, loc *time.Location) *time.Time {
	s := normalizeTimestampString(raw)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// normalizeTimestampString lower-cases the input, rewrites meridiem markers
// to AM/PM and day-first dates to YYYY-MM-DD, then upper-cases the result so
// it lines up with Go layouts.
func normalizeTimestampString(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	s = meridiem.ReplaceAllStringFunc(s, func(m string) string {
		parts := meridiem.FindStringSubmatch(m)
		return parts[1] + " " + strings.ToUpper(parts[2]) + "M"
	})
	if m := dayFirst.FindStringSubmatch(s); m != nil {
		s = m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1]) + m[4]
	}
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// FormatTimestamp renders t with ISOLayout, or nil for a nil instant.
func FormatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(ISOLayout)
	return &s
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
