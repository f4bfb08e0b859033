package cleaner

import (
	"fmt"
	"math"
)

// Report is the data-quality summary for one cleaned batch. It travels with
// query results so answers can be qualified by the state of the underlying
// data.
type Report struct {
	Board            string       `json:"board"`
	RawRows          int          `json:"raw_rows"`
	Rows             int          `json:"rows"`
	DroppedSentinels int          `json:"dropped_sentinels"`
	// Completeness is the percentage of non-empty cells across the canonical
	// fields of the surviving rows.
	Completeness float64      `json:"completeness_pct"`
	ParseErrors  []ParseError `json:"parse_errors,omitempty"`
	Issues       []string     `json:"issues,omitempty"`

	filledCells int
	totalCells  int
}

func newReport(board string, rawRows int) *Report {
	return &Report{Board: board, RawRows: rawRows}
}

func (r *Report) observeCells(filled, total int) {
	r.filledCells += filled
	r.totalCells += total
}

func (r *Report) addParseError(row int, field, value string) {
	r.ParseErrors = append(r.ParseErrors, ParseError{Row: row, Field: field, Value: value})
}

func (r *Report) addIssue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Report) addCountIssue(count int, format string) {
	if count > 0 {
		r.addIssue(format, count)
	}
}

func (r *Report) finalize(rows int) {
	r.Rows = rows
	r.DroppedSentinels = r.RawRows - rows
	if r.totalCells == 0 {
		r.Completeness = 100.0
		return
	}
	r.Completeness = math.Round(float64(r.filledCells)/float64(r.totalCells)*1000) / 10
}
