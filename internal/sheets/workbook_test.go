package sheets

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes cells (tab → cell → value) into an in-memory XLSX.
func buildWorkbook(t *testing.T, tabs map[string]map[string]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for tab, cells := range tabs {
		if tab != "Sheet1" {
			if _, err := f.NewSheet(tab); err != nil {
				t.Fatalf("NewSheet(%q): %v", tab, err)
			}
		}
		for cell, v := range cells {
			if err := f.SetCellValue(tab, cell, v); err != nil {
				t.Fatalf("SetCellValue(%s!%s): %v", tab, cell, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestReadWorkbook_TypesAndClipping(t *testing.T) {
	data := buildWorkbook(t, map[string]map[string]any{
		"Time": {
			"A1": "ID", "B1": "Date", "C1": "Project", "D1": "Billable",
			"A2": 101, "B2": 45965, "C2": "Vortex", "D2": true, "E2": "outside",
			"A3": "102", "B3": "04/11/2025", "C3": "",
		},
	})
	rng, _ := ParseRange("Time!A2:D")

	rows, err := ReadWorkbook(bytes.NewReader(data), rng)
	if err != nil {
		t.Fatalf("ReadWorkbook error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (header skipped)", len(rows))
	}

	first := rows[0]
	if len(first) != 4 {
		t.Fatalf("first row = %v, want 4 cells clipped to D", first)
	}
	if first[0] != float64(101) || first[1] != float64(45965) {
		t.Errorf("numbers = %#v %#v, want float64", first[0], first[1])
	}
	if first[2] != "Vortex" || first[3] != true {
		t.Errorf("text/bool = %#v %#v", first[2], first[3])
	}

	// Text that looks numeric stays text; trailing blanks are trimmed
	second := rows[1]
	if len(second) != 2 || second[0] != "102" || second[1] != "04/11/2025" {
		t.Errorf("second row = %#v", second)
	}
}

func TestReadWorkbook_EndRowAndStartColumn(t *testing.T) {
	data := buildWorkbook(t, map[string]map[string]any{
		"Sheet1": {"A1": "a", "B1": "b", "A2": "c", "B2": "d", "A3": "e", "B3": "f"},
	})
	rng, _ := ParseRange("Sheet1!B1:B2")

	rows, err := ReadWorkbook(bytes.NewReader(data), rng)
	if err != nil {
		t.Fatalf("ReadWorkbook error = %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "b" || rows[1][0] != "d" {
		t.Errorf("rows = %v, want [[b] [d]]", rows)
	}
}

func TestReadWorkbook_MissingTab(t *testing.T) {
	data := buildWorkbook(t, map[string]map[string]any{"Sheet1": {"A1": "x"}})
	rng, _ := ParseRange("Planificacion!A2:I")

	_, err := ReadWorkbook(bytes.NewReader(data), rng)
	if !errors.Is(err, ErrTabNotFound) {
		t.Errorf("error = %v, want ErrTabNotFound", err)
	}
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	rng, _ := ParseRange("Sheet1!A1")
	if _, err := ReadWorkbook(strings.NewReader("not a zip"), rng); err == nil {
		t.Error("expected parse error")
	}
}

func TestReadWorkbook_EmptyTab(t *testing.T) {
	data := buildWorkbook(t, map[string]map[string]any{"Sheet1": {}, "Time": {}})
	rng, _ := ParseRange("Time!A2:AA")

	rows, err := ReadWorkbook(bytes.NewReader(data), rng)
	if err != nil {
		t.Fatalf("ReadWorkbook error = %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %#v, want empty non-nil", rows)
	}
}
