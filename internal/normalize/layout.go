// Package normalize maps loosely typed spreadsheet rows onto typed records.
//
// Column positions are the contract with the upstream sheet: there is no
// header lookup, so reordering source columns silently corrupts the mapping.
// The layouts below are the single place where that contract is written down.
package normalize

import "fmt"

// Layout is an ordered list of column names bound to fixed positions.
type Layout struct {
	name    string
	columns []string
	index   map[string]int
}

// NewLayout builds a Layout. Column names must be unique.
func NewLayout(name string, columns ...string) Layout {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col]; dup {
			panic(fmt.Sprintf("layout %s: duplicate column %q", name, col))
		}
		index[col] = i
	}
	return Layout{name: name, columns: columns, index: index}
}

// Name returns the layout name (the source tab it describes).
func (l Layout) Name() string {
	return l.name
}

// Width returns the number of columns in the layout.
func (l Layout) Width() int {
	return len(l.columns)
}

// Columns returns a copy of the ordered column names.
func (l Layout) Columns() []string {
	out := make([]string, len(l.columns))
	copy(out, l.columns)
	return out
}

// Index returns the zero-based position of col, or -1 if unknown.
func (l Layout) Index(col string) int {
	if i, ok := l.index[col]; ok {
		return i
	}
	return -1
}

// Bind returns a named view over a raw row.
func (l Layout) Bind(row []any) Cells {
	return Cells{row: row, layout: l}
}

// Cells is a raw row viewed through a Layout.
type Cells struct {
	row    []any
	layout Layout
}

// Get returns the raw value of the named column, or nil when the row is
// shorter than the column position (blank trailing cells are omitted
// upstream). Asking for a column the layout does not define panics.
func (c Cells) Get(col string) any {
	i, ok := c.layout.index[col]
	if !ok {
		panic(fmt.Sprintf("layout %s: unknown column %q", c.layout.name, col))
	}
	if i >= len(c.row) {
		return nil
	}
	return c.row[i]
}

// TimeLayout is the 27-column contract of the "Time" tab (A:AA).
var TimeLayout = NewLayout("Time",
	"id",
	"date",
	"start_time",
	"end_time",
	"project",
	"who",
	"description",
	"project_category",
	"company",
	"task_list",
	"task",
	"parent_task",
	"is_sub_task",
	"is_billable",
	"invoice_number",
	"hours",
	"minutes",
	"decimal_hours",
	"estimated_time",
	"estimated_hours",
	"estimated_minutes",
	"tags",
	"task_tags",
	"first_name",
	"last_name",
	"user_id",
	"task_id",
)

// PlanningLayout is the 9-column contract of the "Planificacion" tab (A:I).
// The last column is present in the sheet but not mapped.
var PlanningLayout = NewLayout("Planificacion",
	"period",
	"month_name",
	"first_name",
	"capacity_hours",
	"activity",
	"priority",
	"planned_percentage",
	"planned_hours",
	"unused",
)
