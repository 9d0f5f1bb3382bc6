package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseInt reads an integer from a cell value. Strings are parsed by their
// leading integer ("3.7" is 3, "12abc" is 12) and floats are truncated.
// The boolean is false when no integer can be read.
func ParseInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(math.Trunc(x)), true
	case string:
		m := leadingInt.FindString(strings.TrimSpace(x))
		if m == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ParseIntOrZero is ParseInt with a 0 fallback.
func ParseIntOrZero(v any) int64 {
	n, _ := ParseInt(v)
	return n
}

// ParseFloat reads a float from a cell value by its leading number,
// returning 0 when nothing numeric is found.
func ParseFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return x
	case string:
		m := leadingFloat.FindString(strings.TrimSpace(x))
		if m == "" {
			return 0
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ParseFlag reports whether a cell holds a yes-ish flag: the number 1,
// the strings "1" or "Yes" (exact case), or boolean true.
func ParseFlag(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x == 1
	case int64:
		return x == 1
	case float64:
		return x == 1
	case string:
		return x == "Yes" || x == "1"
	default:
		return false
	}
}

// Text passes a cell through as text. Absent cells stay nil.
func Text(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return nil
	}
	return &s
}

// optionalInt is ParseInt returning nil when unparseable.
func optionalInt(v any) *int64 {
	n, ok := ParseInt(v)
	if !ok {
		return nil
	}
	return &n
}
