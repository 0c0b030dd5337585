package ingest

import (
	"fmt"
	"time"
)

// Month is a calendar month encoded as year*12 + (month-1), so consecutive
// months are consecutive integers and series indexing is plain arithmetic.
type Month int

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Year()*12 + int(t.Month()) - 1)
}

// ParseMonth parses a "YYYY-MM" month string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Time returns midnight UTC on the first day of the month.
func (m Month) Time() time.Time {
	return time.Date(int(m)/12, time.Month(int(m)%12+1), 1, 0, 0, 0, 0, time.UTC)
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return m.Time().Format("2006-01")
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	return m + Month(n)
}

// EndsOnOrAfter reports whether the last instant of the month falls on or
// after t, i.e. whether any billing within the month could postdate t.
func (m Month) EndsOnOrAfter(t time.Time) bool {
	return m.Add(1).Time().After(t)
}
