package sheets

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned for A1 references the reader cannot interpret.
var ErrInvalidRange = errors.New("invalid A1 range")

// Range is a parsed A1 reference. Columns and rows are 1-based; a zero
// EndColumn or EndRow means the range is open in that direction.
type Range struct {
	Tab         string
	StartColumn int
	StartRow    int
	EndColumn   int
	EndRow      int
}

var cellRef = regexp.MustCompile(`^([A-Za-z]*)([0-9]*)$`)

// ParseRange parses "Tab!A2:AA", "Tab!A2:I100", "'My Tab'!B:C" or a bare
// "Tab" (the whole tab).
func ParseRange(a1 string) (Range, error) {
	a1 = strings.TrimSpace(a1)
	if a1 == "" {
		return Range{}, fmt.Errorf("%w: empty reference", ErrInvalidRange)
	}

	tab, cells := a1, ""
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		tab, cells = a1[:i], a1[i+1:]
		if cells == "" {
			return Range{}, fmt.Errorf("%w: %q has no cells after '!'", ErrInvalidRange, a1)
		}
	}
	tab = unquoteTab(tab)
	if tab == "" {
		return Range{}, fmt.Errorf("%w: %q has no tab name", ErrInvalidRange, a1)
	}

	r := Range{Tab: tab, StartColumn: 1, StartRow: 1}
	if cells == "" {
		return r, nil
	}

	start, end, hasEnd := strings.Cut(cells, ":")
	col, row, err := parseCell(start)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, a1, err)
	}
	if col > 0 {
		r.StartColumn = col
	}
	if row > 0 {
		r.StartRow = row
	}
	if !hasEnd {
		r.EndColumn, r.EndRow = col, row
		return r, nil
	}

	col, row, err = parseCell(end)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, a1, err)
	}
	r.EndColumn, r.EndRow = col, row
	if r.EndColumn > 0 && r.EndColumn < r.StartColumn {
		return Range{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidRange, a1)
	}
	if r.EndRow > 0 && r.EndRow < r.StartRow {
		return Range{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidRange, a1)
	}
	return r, nil
}

// String renders the range back into A1 notation.
func (r Range) String() string {
	tab := r.Tab
	if strings.ContainsAny(tab, " '!") {
		tab = "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	}
	start := ColumnName(r.StartColumn) + strconv.Itoa(r.StartRow)
	end := ""
	if r.EndColumn > 0 {
		end = ColumnName(r.EndColumn)
	}
	if r.EndRow > 0 {
		end += strconv.Itoa(r.EndRow)
	}
	if end == "" {
		return tab + "!" + start
	}
	return tab + "!" + start + ":" + end
}

func parseCell(ref string) (col, row int, err error) {
	m := cellRef.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, 0, fmt.Errorf("bad cell reference %q", ref)
	}
	if m[1] != "" {
		col = ColumnNumber(m[1])
	}
	if m[2] != "" {
		row, err = strconv.Atoi(m[2])
		if err != nil || row == 0 {
			return 0, 0, fmt.Errorf("bad row in %q", ref)
		}
	}
	return col, row, nil
}

func unquoteTab(tab string) string {
	tab = strings.TrimSpace(tab)
	if len(tab) >= 2 && strings.HasPrefix(tab, "'") && strings.HasSuffix(tab, "'") {
		tab = strings.ReplaceAll(tab[1:len(tab)-1], "''", "'")
	}
	return tab
}

// ColumnName converts a 1-based column number to letters (1 → A, 27 → AA).
func ColumnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+(n%26))) + name
		n /= 26
	}
	return name
}

// ColumnNumber converts column letters to a 1-based number (A → 1, AA → 27).
func ColumnNumber(letters string) int {
	n := 0
	for _, c := range strings.ToUpper(letters) {
		n = n*26 + int(c-'A'+1)
	}
	return n
}
