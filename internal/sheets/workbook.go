package sheets

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ErrTabNotFound is returned when the workbook has no tab with the requested name.
var ErrTabNotFound = errors.New("tab not found in workbook")

// ReadWorkbook parses an XLSX stream and returns the cells of rng.
// Rows above rng.StartRow are skipped (a range starting at row 2 drops the
// header row), and columns are clipped to the range.
func ReadWorkbook(r io.Reader, rng Range) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	defer f.Close()

	if !hasSheet(f, rng.Tab) {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, rng.Tab)
	}

	raw, err := f.GetRows(rng.Tab, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read workbook tab %s: %w", rng.Tab, err)
	}

	rows := []Row{}
	for i, cells := range raw {
		rowNum := i + 1
		if rowNum < rng.StartRow {
			continue
		}
		if rng.EndRow > 0 && rowNum > rng.EndRow {
			break
		}
		row := Row{}
		for j, value := range cells {
			colNum := j + 1
			if colNum < rng.StartColumn {
				continue
			}
			if rng.EndColumn > 0 && colNum > rng.EndColumn {
				break
			}
			row = append(row, cellValue(f, rng.Tab, colNum, rowNum, value))
		}
		rows = append(rows, trimTrailingBlanks(row))
	}
	return rows, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// cellValue types a raw cell the way the Sheets API would when rendering
// unformatted values: text stays text, booleans become bool, numbers
// (including date serials) become float64.
func cellValue(f *excelize.File, tab string, col, row int, raw string) any {
	if raw == "" {
		return ""
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(tab, axis)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw
	case excelize.CellTypeBool:
		return raw == "1" || raw == "TRUE" || raw == "true"
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func trimTrailingBlanks(row Row) Row {
	end := len(row)
	for end > 0 {
		if s, ok := row[end-1].(string); !ok || s != "" {
			break
		}
		end--
	}
	return row[:end]
}
