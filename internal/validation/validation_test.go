package validation

import (
	"strings"
	"testing"
)

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantErr bool
	}{
		{"utf8 ascii", ValidateUTF8("f", "hello"), false},
		{"utf8 unicode", ValidateUTF8("f", "Planificación 世界"), false},
		{"utf8 invalid", ValidateUTF8("f", string([]byte{0xff, 0xfe})), true},
		{"no null clean", ValidateNoNullBytes("f", "sheet-id"), false},
		{"no null with null", ValidateNoNullBytes("f", "sheet\x00id"), true},
		{"max length within", ValidateMaxLength("f", "abc", 3), false},
		{"max length multibyte", ValidateMaxLength("f", "ñññ", 3), false},
		{"max length exceeds", ValidateMaxLength("f", "abcd", 3), true},
		{"ulid valid", ValidateULID("f", "01ARZ3NDEKTSV4RRFFQ69G5FAV"), false},
		{"ulid lowercase", ValidateULID("f", "01arz3ndektsv4rrffq69g5fav"), false},
		{"ulid short", ValidateULID("f", "01ARZ3"), true},
		{"ulid bad char", ValidateULID("f", "01ARZ3NDEKTSV4RRFFQ69G5FAU"), true},
		{"required set", ValidateRequired("f", "x"), false},
		{"required empty", ValidateRequired("f", ""), true},
		{"required whitespace", ValidateRequired("f", "  \t"), true},
		{"a1 full", ValidateA1Range("f", "Time!A2:AA"), false},
		{"a1 bare tab", ValidateA1Range("f", "Planificacion"), false},
		{"a1 quoted", ValidateA1Range("f", "'My Tab'!B:C"), false},
		{"a1 reversed", ValidateA1Range("f", "Time!C2:A1"), true},
		{"a1 empty", ValidateA1Range("f", ""), true},
		{"int range within", ValidateIntRange("f", "50", 1, 100), false},
		{"int range below", ValidateIntRange("f", "0", 1, 100), true},
		{"int range above", ValidateIntRange("f", "101", 1, 100), true},
		{"int range not a number", ValidateIntRange("f", "ten", 1, 100), true},
		{"date valid", ValidateDate("f", "2025-11-04"), false},
		{"date day first", ValidateDate("f", "04/11/2025"), true},
		{"date impossible", ValidateDate("f", "2025-02-30"), true},
		{"period valid", ValidatePeriod("f", "202511"), false},
		{"period bad month", ValidatePeriod("f", "202513"), true},
		{"period too long", ValidatePeriod("f", "2025110"), true},
		{"period text", ValidatePeriod("f", "nov-25"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.err != nil; gotErr != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", tt.err, tt.wantErr)
			}
			if tt.err != nil && tt.err.Field != "f" {
				t.Errorf("Field = %q, want %q", tt.err.Field, "f")
			}
		})
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	if c.HasErrors() {
		t.Error("empty collector should have no errors")
	}

	c.Add(nil)
	c.Add(&ValidationError{Field: "a", Message: "bad"})
	c.Add(nil)
	c.Add(&ValidationError{Field: "b", Message: "worse"})

	if !c.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	errs := c.Errors()
	if len(errs) != 2 || errs[0].Field != "a" || errs[1].Field != "b" {
		t.Errorf("Errors() = %+v, want a then b", errs)
	}
}

func TestValidateSheetReadQuery(t *testing.T) {
	if errs := ValidateSheetReadQuery("sheet-123", "Time!A1:B10"); len(errs) != 0 {
		t.Errorf("valid query returned %+v", errs)
	}

	errs := ValidateSheetReadQuery(strings.Repeat("x", MaxSpreadsheetIDLength+1), "Time!Z9:A1")
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	if !fields["id"] || !fields["range"] {
		t.Errorf("errors = %+v, want id and range", errs)
	}
}

func TestValidateTimeEntriesQuery(t *testing.T) {
	tests := []struct {
		name       string
		from, to   string
		limit      string
		wantFields []string
	}{
		{"empty", "", "", "", nil},
		{"valid", "2025-11-01", "2025-12-01", "100", nil},
		{"bad from", "yesterday", "", "", []string{"from"}},
		{"bad limit", "", "", "0", []string{"limit"}},
		{"to before from", "2025-12-01", "2025-11-01", "", []string{"to"}},
		{"all bad", "x", "y", "z", []string{"from", "to", "limit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateTimeEntriesQuery(tt.from, tt.to, tt.limit)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("errors = %+v, want fields %v", errs, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if errs[i].Field != f {
					t.Errorf("errors[%d].Field = %q, want %q", i, errs[i].Field, f)
				}
			}
		})
	}
}

func TestValidatePlanningAndRunsQuery(t *testing.T) {
	if errs := ValidatePlanningQuery(""); len(errs) != 0 {
		t.Errorf("empty period returned %+v", errs)
	}
	if errs := ValidatePlanningQuery("2025-11"); len(errs) != 1 {
		t.Errorf("bad period returned %+v, want one error", errs)
	}
	if errs := ValidateRunsQuery("20"); len(errs) != 0 {
		t.Errorf("valid limit returned %+v", errs)
	}
	if errs := ValidateRunsQuery("-1"); len(errs) != 1 {
		t.Errorf("negative limit returned %+v, want one error", errs)
	}
}
