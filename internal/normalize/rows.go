package normalize

import (
	"strings"
	"time"

	"github.com/hyperengineering/vortex/internal/types"
)

// Rejection records a source row that was left out of the upsert batch.
type Rejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

const (
	ReasonMissingID        = "missing or non-numeric id"
	ReasonMissingPeriod    = "missing or non-numeric period"
	ReasonMissingFirstName = "empty first_name"
)

// MapTimeEntry maps one "Time" row. The boolean is false when the row has
// no usable id (absent, non-numeric or zero) and must be dropped.
func MapTimeEntry(row []any, loc *time.Location) (types.TimeEntry, bool) {
	c := TimeLayout.Bind(row)

	id, ok := ParseInt(c.Get("id"))
	if !ok || id == 0 {
		return types.TimeEntry{}, false
	}

	return types.TimeEntry{
		ID:               id,
		Date:             ParseTimestamp(c.Get("date"), loc),
		StartTime:        ParseTimestamp(c.Get("start_time"), loc),
		EndTime:          ParseTimestamp(c.Get("end_time"), loc),
		ProjectName:      Text(c.Get("project")),
		UserFullName:     Text(c.Get("who")),
		Description:      Text(c.Get("description")),
		ProjectCategory:  Text(c.Get("project_category")),
		Company:          Text(c.Get("company")),
		TaskList:         Text(c.Get("task_list")),
		TaskName:         Text(c.Get("task")),
		ParentTask:       Text(c.Get("parent_task")),
		IsSubTask:        ParseFlag(c.Get("is_sub_task")),
		IsBillable:       ParseFlag(c.Get("is_billable")),
		InvoiceNumber:    Text(c.Get("invoice_number")),
		Hours:            ParseIntOrZero(c.Get("hours")),
		Minutes:          ParseIntOrZero(c.Get("minutes")),
		DecimalHours:     ParseFloat(c.Get("decimal_hours")),
		EstimatedTime:    ParseFloat(c.Get("estimated_time")),
		EstimatedHours:   ParseFloat(c.Get("estimated_hours")),
		EstimatedMinutes: ParseFloat(c.Get("estimated_minutes")),
		Tags:             Text(c.Get("tags")),
		TaskTags:         Text(c.Get("task_tags")),
		FirstName:        Text(c.Get("first_name")),
		LastName:         Text(c.Get("last_name")),
		ExternalUserID:   optionalInt(c.Get("user_id")),
		ExternalTaskID:   optionalInt(c.Get("task_id")),
	}, true
}

// MapPlanningEntry maps one "Planificacion" row. The boolean is false when
// the period is not an integer or first_name is empty.
func MapPlanningEntry(row []any) (types.PlanningEntry, bool) {
	e, reason := mapPlanningEntry(row)
	return e, reason == ""
}

func mapPlanningEntry(row []any) (types.PlanningEntry, string) {
	c := PlanningLayout.Bind(row)

	period, ok := ParseInt(c.Get("period"))
	if !ok {
		return types.PlanningEntry{}, ReasonMissingPeriod
	}
	firstName := ""
	if s := Text(c.Get("first_name")); s != nil {
		firstName = strings.TrimSpace(*s)
	}
	if firstName == "" {
		return types.PlanningEntry{}, ReasonMissingFirstName
	}
	activity := ""
	if s := Text(c.Get("activity")); s != nil {
		activity = *s
	}

	return types.PlanningEntry{
		Period:            period,
		MonthName:         Text(c.Get("month_name")),
		FirstName:         firstName,
		CapacityHours:     ParseFloat(c.Get("capacity_hours")),
		Activity:          activity,
		Priority:          Text(c.Get("priority")),
		PlannedPercentage: ParseFloat(c.Get("planned_percentage")),
		PlannedHours:      ParseFloat(c.Get("planned_hours")),
	}, ""
}

// NormalizeTimeRows maps every row and splits the result into kept entries
// and rejections. firstRow is the sheet row number of rows[0], used only to
// make rejections point at the right line.
func NormalizeTimeRows(rows [][]any, firstRow int, loc *time.Location) ([]types.TimeEntry, []Rejection) {
	entries := make([]types.TimeEntry, 0, len(rows))
	var rejected []Rejection
	for i, row := range rows {
		e, ok := MapTimeEntry(row, loc)
		if !ok {
			rejected = append(rejected, Rejection{Row: firstRow + i, Reason: ReasonMissingID})
			continue
		}
		entries = append(entries, e)
	}
	return entries, rejected
}

// NormalizePlanningRows is NormalizeTimeRows for the planning tab.
func NormalizePlanningRows(rows [][]any, firstRow int) ([]types.PlanningEntry, []Rejection) {
	entries := make([]types.PlanningEntry, 0, len(rows))
	var rejected []Rejection
	for i, row := range rows {
		e, reason := mapPlanningEntry(row)
		if reason != "" {
			rejected = append(rejected, Rejection{Row: firstRow + i, Reason: reason})
			continue
		}
		entries = append(entries, e)
	}
	return entries, rejected
}
