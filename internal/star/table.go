// Package star builds the dimensional model: customer, product and date
// dimensions plus the sales fact table, all derived from the sanitized
// working row set.
package star

import "time"

// Logical column types understood by every storage backend.
const (
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeReal      = "real"
	TypeDate      = "date"
	TypeTimestamp = "timestamp"
)

// Table is a positional, column-ordered table ready for the sink.
//
// Columns and Types are parallel slices; Rows hold values aligned to Columns
// with nil for SQL NULL. The column set of the fact table varies with the
// resolved source fields, so consumers must locate columns by name via
// ColumnIndex rather than assuming positions.
type Table struct {
	Name    string
	Columns []string
	Types   []string
	Rows    [][]any
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// ColumnIndex returns the position of a named column, or -1 when the table
// does not carry it.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// DateKey derives the integer YYYYMMDD key for a date.
func DateKey(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// nullable converts a *T into its driver value (nil for SQL NULL).
func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
