package ingest

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.String(); got != "2024-03" {
		t.Errorf("expected 2024-03, got %s", got)
	}

	if _, err := ParseMonth("2024-13"); err == nil {
		t.Error("expected error for month 13")
	}
	if _, err := ParseMonth("garbage"); err == nil {
		t.Error("expected error for non-month string")
	}
}

func TestMonthArithmetic(t *testing.T) {
	m, _ := ParseMonth("2023-11")
	if got := m.Add(2).String(); got != "2024-01" {
		t.Errorf("expected year rollover to 2024-01, got %s", got)
	}
	if got := m.Add(-11).String(); got != "2022-12" {
		t.Errorf("expected 2022-12, got %s", got)
	}

	next, _ := ParseMonth("2023-12")
	if diff := int(next - m); diff != 1 {
		t.Errorf("expected consecutive months to differ by 1, got %d", diff)
	}
}

func TestMonthEndsOnOrAfter(t *testing.T) {
	m, _ := ParseMonth("2023-03")

	cases := []struct {
		date string
		want bool
	}{
		{"2023-01-01", true},  // exclusion long before the month
		{"2023-03-20", true},  // mid-month: billing could postdate it
		{"2023-03-31", true},  // last day of the month
		{"2023-04-01", false}, // strictly after the month
	}
	for _, c := range cases {
		d, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := m.EndsOnOrAfter(d); got != c.want {
			t.Errorf("2023-03 EndsOnOrAfter(%s) = %v, want %v", c.date, got, c.want)
		}
	}
}
