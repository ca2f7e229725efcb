package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the step between successive occurrences of a recurring event.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// ParseFrequency accepts a frequency name, case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidArgument, s)
	}
	return f, nil
}

// Valid reports whether f is one of the four supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Next advances t by one unit of f in t's own location.
//
// Month and year steps keep the day of month when the target month has it
// and clamp to the month's last day otherwise (Jan 31 -> Feb 28,
// Feb 29 -> Feb 28 of a common year). Wall-clock time is preserved.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return addMonthsClamped(t, 1)
	case Yearly:
		return addMonthsClamped(t, 12)
	}
	return t
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	// Day 1 never overflows, so this lands in the target month.
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	ty, tm, _ := target.Date()
	if last := daysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
