package formatter

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Table formats columnar output via tablewriter. Columns are built up with
// AddRow and only rendered once Render is called, so a table with no rows
// produces no output at all — a report with nothing to show stays silent
// rather than printing bare headers.
type Table struct {
	out      io.Writer
	headers  []string
	maxWidth map[int]int // column index -> max width (0 = unlimited)
	rows     [][]string
}

// NewTable creates a table that writes to w with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{
		out:      w,
		headers:  headers,
		maxWidth: make(map[int]int),
	}
}

// SetMaxWidth sets the maximum display width for a column (0-indexed).
// Values exceeding the limit are truncated with "...".
func (t *Table) SetMaxWidth(col, width int) *Table {
	t.maxWidth[col] = width
	return t
}

// AddRow appends a data row. Extra values beyond the header count are
// ignored; missing values are filled with empty strings.
func (t *Table) AddRow(values ...string) {
	cells := make([]string, len(t.headers))
	for i := range cells {
		if i < len(values) {
			cells[i] = t.truncate(i, values[i])
		}
	}
	t.rows = append(t.rows, cells)
}

// Render draws the accumulated rows to the underlying writer.
func (t *Table) Render() error {
	if len(t.rows) == 0 {
		return nil
	}

	tw := tablewriter.NewWriter(t.out)
	tw.SetHeader(t.headers)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	tw.SetColumnSeparator(" ")
	tw.SetCenterSeparator("")
	tw.SetRowSeparator("-")
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range t.rows {
		tw.Append(row)
	}
	tw.Render()
	return nil
}

func (t *Table) truncate(col int, s string) string {
	max, ok := t.maxWidth[col]
	if !ok || max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// RenderReportTable writes one row per report: trace ID, intent, risk
// level, outcome, and step count. Used for `--output table` by `lyra
// history`, `run`, `repl`, and `simulate`.
func RenderReportTable(w io.Writer, reports []Report) error {
	tbl := NewTable(w, "TRACE", "INTENT", "RISK", "OUTCOME", "STEPS", "CREATED")
	tbl.SetMaxWidth(0, 12)
	for _, r := range reports {
		tbl.AddRow(
			r.TraceID,
			r.Intent,
			r.RiskLevel,
			r.Outcome,
			strconv.Itoa(len(r.Steps)),
			r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		)
	}
	return tbl.Render()
}

// RenderStepTable writes one row per step within a single report,
// itemizing a plan's steps and their outcomes. No CLI command calls it.
func RenderStepTable(w io.Writer, steps []StepSummary) error {
	tbl := NewTable(w, "STEP", "TOOL", "RISK", "RESULT")
	for _, s := range steps {
		result := "ok"
		if !s.Success {
			result = "failed"
		}
		tbl.AddRow(s.StepID, s.ToolName, s.Risk, result)
	}
	return tbl.Render()
}
