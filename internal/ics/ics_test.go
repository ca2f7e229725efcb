package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"wallcal/internal/model"
)

const teamCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//example//team//EN
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20260101T000000Z
DTSTART:20261019T090000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20261026T090000Z
SUMMARY:Standup
DESCRIPTION:weekly sync
END:VEVENT
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20260101T000000Z
RECURRENCE-ID:20261102T090000Z
DTSTART:20261102T100000Z
SUMMARY:Standup (moved)
END:VEVENT
BEGIN:VEVENT
UID:dinner@example.com
DTSTAMP:20260101T000000Z
DTSTART:20261126T180000Z
SUMMARY:Dinner
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20260101T000000Z
DTSTART:20261126T180000Z
SUMMARY:No UID
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "team"}, crlf(teamCalendar))
	if err != nil {
		t.Fatalf("ParseICS() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("ParseICS() returned %d events, want 3", len(events))
	}

	base := events[0]
	if base.UID != "standup@example.com" || base.Summary != "Standup" || base.Description != "weekly sync" {
		t.Errorf("events[0] = %+v", base)
	}
	if base.RawRRule != "FREQ=WEEKLY;COUNT=4" {
		t.Errorf("RawRRule = %q", base.RawRRule)
	}
	if len(base.ExDates) != 1 || !base.ExDates[0].Equal(time.Date(2026, 10, 26, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("ExDates = %v", base.ExDates)
	}
	if base.AllDay {
		t.Error("AllDay = true for a DATE-TIME start")
	}

	override := events[1]
	if !override.IsOverride || override.Recurrence == nil ||
		!override.Recurrence.Equal(time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("override = %+v", override)
	}
}

func TestParseICSEmpty(t *testing.T) {
	if _, err := ParseICS(Source{ID: "empty"}, nil); err == nil {
		t.Error("ParseICS(nil) error = nil")
	}
}

func TestExpandOccurrences(t *testing.T) {
	events, err := ParseICS(Source{ID: "team"}, crlf(teamCalendar))
	if err != nil {
		t.Fatalf("ParseICS() error = %v", err)
	}

	from := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      from,
		RangeEnd:        from.AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("ExpandOccurrences() error = %v", err)
	}

	want := []struct {
		summary string
		start   time.Time
	}{
		{"Standup", time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
		{"Standup (moved)", time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)},
		{"Standup", time.Date(2026, 11, 9, 9, 0, 0, 0, time.UTC)},
		{"Dinner", time.Date(2026, 11, 26, 18, 0, 0, 0, time.UTC)},
	}
	if len(res.Occurrences) != len(want) {
		t.Fatalf("ExpandOccurrences() returned %d occurrences, want %d: %+v", len(res.Occurrences), len(want), res.Occurrences)
	}
	for i, w := range want {
		got := res.Occurrences[i]
		if got.Summary != w.summary || !got.Start.Equal(w.start) {
			t.Errorf("occurrence %d = %q at %v, want %q at %v", i, got.Summary, got.Start, w.summary, w.start)
		}
		if got.SourceID != "team" {
			t.Errorf("occurrence %d SourceID = %q", i, got.SourceID)
		}
	}
	if len(res.TruncatedEvents) != 0 {
		t.Errorf("TruncatedEvents = %v", res.TruncatedEvents)
	}
}

func TestExpandOccurrencesCap(t *testing.T) {
	start := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	events := []ParsedEvent{{
		UID:      "daily@example.com",
		Summary:  "Pills",
		Start:    start,
		RawRRule: "FREQ=DAILY",
	}}

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             start,
		RangeEnd:               start.AddDate(1, 0, 0),
		MaxOccurrencesPerEvent: 10,
	})
	if err != nil {
		t.Fatalf("ExpandOccurrences() error = %v", err)
	}
	if len(res.Occurrences) != 10 {
		t.Errorf("got %d occurrences, want cap of 10", len(res.Occurrences))
	}
	if len(res.TruncatedEvents) != 1 || res.TruncatedEvents[0] != "daily@example.com" {
		t.Errorf("TruncatedEvents = %v", res.TruncatedEvents)
	}
}

func TestExpandOccurrencesBadRange(t *testing.T) {
	now := time.Now()
	if _, err := ExpandOccurrences(nil, ExpandConfig{RangeStart: now, RangeEnd: now.Add(-time.Hour)}); err == nil {
		t.Error("ExpandOccurrences() error = nil for inverted range")
	}
}

func TestEncode(t *testing.T) {
	at := time.Date(2026, 11, 26, 18, 0, 0, 0, time.UTC)
	occs := []model.Occurrence{
		{Summary: "Dinner", Description: "bring pie", Start: at},
		{UID: "standup@example.com", Summary: "Standup", Start: at.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, "wallcal", occs); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "PRODID:" + productID, "SUMMARY:Dinner", "DESCRIPTION:bring pie", "UID:standup@example.com", "END:VCALENDAR"} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded calendar missing %q:\n%s", want, out)
		}
	}

	parsed, err := ParseICS(Source{ID: "self"}, buf.Bytes())
	if err != nil {
		t.Fatalf("ParseICS(Encode()) error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("re-parsed %d events, want 2", len(parsed))
	}
	if parsed[0].Summary != "Dinner" || !parsed[0].Start.Equal(at) {
		t.Errorf("re-parsed event = %+v", parsed[0])
	}
}

func TestEventUID(t *testing.T) {
	at := time.Date(2026, 11, 26, 18, 0, 0, 0, time.UTC)
	a := EventUID(model.Occurrence{Summary: "Dinner", Start: at})
	b := EventUID(model.Occurrence{Summary: "Dinner", Start: at.In(time.FixedZone("EST", -5*60*60))})
	c := EventUID(model.Occurrence{Summary: "Lunch", Start: at})

	if a != b {
		t.Errorf("UID depends on zone: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different titles share UID %q", a)
	}
	if !strings.HasSuffix(a, "@wallcal") {
		t.Errorf("UID %q lacks @wallcal suffix", a)
	}
	if got := EventUID(model.Occurrence{UID: "keep-me"}); got != "keep-me" {
		t.Errorf("EventUID() = %q, want existing UID", got)
	}
}
