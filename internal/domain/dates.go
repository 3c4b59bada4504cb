package domain

import (
	"fmt"
	"time"
)

// DayFormat is the ISO-8601 date format used everywhere dates cross a
// boundary (storage, HTTP, logs). All dates in this system are
// whole-day granularity.
const DayFormat = "2006-01-02"

// Day normalizes t to midnight UTC, the canonical representation of a
// whole day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDay builds a canonical whole-day time from year, month and day.
func NewDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO date string into a canonical whole-day time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDay renders a time as an ISO date string.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// SameDay reports whether a and b fall on the same UTC day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// MonthsBetween returns the number of whole calendar months from start
// to end, rounding partial months up. Used for trend interval tiering.
func MonthsBetween(start, end time.Time) int {
	start, end = Day(start), Day(end)
	if !start.Before(end) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() > start.Day() {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}
