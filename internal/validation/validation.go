// Package validation checks query parameters on the HTTP surface before
// they reach the reader or the store.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hyperengineering/vortex/internal/sheets"
)

// Query parameter limits.
const (
	MaxSpreadsheetIDLength = 200
	MaxRangeLength         = 200
	MaxListLimit           = 5000
	DateLayout             = "2006-01-02"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateULID returns an error if the value is not a valid ULID format.
// ULIDs are 26 characters using Crockford Base32 (excludes I, L, O, U).
func ValidateULID(field, value string) *ValidationError {
	if len(value) != 26 {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	}

	const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	for _, r := range value {
		upper := strings.ToUpper(string(r))
		if !strings.Contains(crockfordBase32, upper) {
			return &ValidationError{
				Field:   field,
				Message: "must be a valid ULID (invalid character)",
			}
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateA1Range returns an error if the value is not parseable A1 notation.
func ValidateA1Range(field, value string) *ValidationError {
	if _, err := sheets.ParseRange(value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a range in A1 notation (e.g. Time!A2:AA)",
		}
	}
	return nil
}

// ValidateIntRange returns an error if the value is not an integer in [min, max].
func ValidateIntRange(field, value string, min, max int) *ValidationError {
	n, err := strconv.Atoi(value)
	if err != nil || n < min || n > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be an integer between %d and %d", min, max),
		}
	}
	return nil
}

// ValidateDate returns an error if the value is not a YYYY-MM-DD date.
func ValidateDate(field, value string) *ValidationError {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a date formatted as YYYY-MM-DD",
		}
	}
	return nil
}

// ValidatePeriod returns an error if the value is not a YYYYMM period.
func ValidatePeriod(field, value string) *ValidationError {
	if len(value) != 6 {
		return &ValidationError{Field: field, Message: "must be a period formatted as YYYYMM"}
	}
	if _, err := time.Parse("200601", value); err != nil {
		return &ValidationError{Field: field, Message: "must be a period formatted as YYYYMM"}
	}
	return nil
}

// ValidateSheetReadQuery checks the sheet preview parameters. The id is
// checked for presence by the caller, which answers 400 on its own.
func ValidateSheetReadQuery(id, a1Range string) []ValidationError {
	var c Collector
	c.Add(ValidateMaxLength("id", id, MaxSpreadsheetIDLength))
	c.Add(ValidateNoNullBytes("id", id))
	c.Add(ValidateUTF8("range", a1Range))
	c.Add(ValidateMaxLength("range", a1Range, MaxRangeLength))
	if !c.HasErrors() {
		c.Add(ValidateA1Range("range", a1Range))
	}
	return c.Errors()
}

// ValidateTimeEntriesQuery checks the time entry listing parameters.
// Empty values mean "not set".
func ValidateTimeEntriesQuery(from, to, limit string) []ValidationError {
	var c Collector
	if from != "" {
		c.Add(ValidateDate("from", from))
	}
	if to != "" {
		c.Add(ValidateDate("to", to))
	}
	if limit != "" {
		c.Add(ValidateIntRange("limit", limit, 1, MaxListLimit))
	}
	if from != "" && to != "" && !c.HasErrors() && to < from {
		c.Add(&ValidationError{Field: "to", Message: "must not be before from"})
	}
	return c.Errors()
}

// ValidatePlanningQuery checks the planning listing parameters.
func ValidatePlanningQuery(period string) []ValidationError {
	var c Collector
	if period != "" {
		c.Add(ValidatePeriod("period", period))
	}
	return c.Errors()
}

// ValidateRunsQuery checks the sync run listing parameters.
func ValidateRunsQuery(limit string) []ValidationError {
	var c Collector
	if limit != "" {
		c.Add(ValidateIntRange("limit", limit, 1, MaxListLimit))
	}
	return c.Errors()
}
