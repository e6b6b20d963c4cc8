package domain

import (
	"fmt"
	"time"
)

// Snapshot is one daily report: the report date and its raw data lines
// (header removed), in file order.
type Snapshot struct {
	ReportDate time.Time
	Rows       []string
}

// ParseError reports a row whose layout or numeric content does not match
// the schema in effect for its report date.
type ParseError struct {
	ReportDate time.Time
	Row        string
	Field      string
	Value      string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s report: field %s=%q in row %q: %v",
		e.ReportDate.Format(time.DateOnly), e.Field, e.Value, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// reportDay truncates t to midnight UTC of its calendar day.
func reportDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
