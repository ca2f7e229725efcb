package calendar

import (
	"fmt"
	"strings"
	"time"
)

// InputLayout is the date-time format typed at the prompt.
const InputLayout = "01/02/2006 15:04"

var timestampLayouts = []string{
	InputLayout,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses front-end input into an instant. Layouts without an
// offset are read in loc. The result is truncated to the minute.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q (want %s)", ErrInvalidArgument, s, InputLayout)
}
