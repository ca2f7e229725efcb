package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"wallcal/internal/calendar"
)

var thanksgiving = time.Date(2016, 11, 26, 18, 0, 0, 0, time.UTC)

func runScript(t *testing.T, store *calendar.Store, script string) string {
	t.Helper()
	var out bytes.Buffer
	in := scanReader{sc: bufio.NewScanner(strings.NewReader(script)), out: &out}
	if err := newShell(store, time.UTC, in, &out).run(); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	return out.String()
}

func testStore() *calendar.Store {
	now := time.Date(2016, 11, 1, 9, 0, 0, 0, time.UTC)
	return calendar.NewStore(calendar.WithClock(func() time.Time { return now }))
}

func TestShellInsertAndView(t *testing.T) {
	store := testStore()
	out := runScript(t, store, strings.Join([]string{
		"insert event",
		"Thanksgiving 2016",
		"11/26/2016 18:00",
		"Gather round and share the joy.",
		"none",
		"view events",
		"exit",
	}, "\n")+"\n")

	if store.Len() != 1 {
		t.Fatalf("store.Len() = %d, want 1", store.Len())
	}
	want := "Upcoming events:\n11/26/2016 @ 6:00PM | Thanksgiving 2016    | Notes: Gather round and share the joy.\n"
	if !strings.Contains(out, want) {
		t.Errorf("output missing calendar view:\n%s", out)
	}
}

func TestShellInsertRecurring(t *testing.T) {
	store := testStore()
	runScript(t, store, "insert event\nStandup\n11/07/2016 09:00\nsync\nWeekly\n")

	if store.Len() != 52 {
		t.Errorf("store.Len() = %d, want 52 weekly occurrences", store.Len())
	}
}

func TestShellRetriesInvalidInput(t *testing.T) {
	store := testStore()
	out := runScript(t, store, strings.Join([]string{
		"insert event",
		"",
		"Dinner",
		"tomorrow evening",
		"11/26/2016 18:00",
		"pie",
		"hourly",
		"none",
	}, "\n")+"\n")

	if n := strings.Count(out, "Invalid input:"); n != 3 {
		t.Errorf("got %d retry messages, want 3:\n%s", n, out)
	}
	if _, ok := store.FindEvent("Dinner", thanksgiving); !ok {
		t.Error("event not inserted after retries")
	}
}

func TestShellOutOfRange(t *testing.T) {
	store := testStore()
	out := runScript(t, store, "insert event\nThanksgiving 2017\n11/26/2017 18:00\nnext year\nnone\n")

	if !strings.Contains(out, "Event date must be within one year of today's date.") {
		t.Errorf("missing range message:\n%s", out)
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d, want 0", store.Len())
	}
}

func TestShellInvalidCommand(t *testing.T) {
	out := runScript(t, testStore(), "dance\nview\nview events please\n")
	if n := strings.Count(out, "Invalid command. Please try again."); n != 3 {
		t.Errorf("got %d invalid command messages, want 3:\n%s", n, out)
	}
}

func TestShellViewAndDelete(t *testing.T) {
	store := testStore()
	_ = store.AddEvent("Thanksgiving 2016", thanksgiving, "Gather round and share the joy.")

	out := runScript(t, store, strings.Join([]string{
		"view event",
		"Thanksgiving 2016",
		"11/26/2016 18:00",
		"delete event",
		"Thanksgiving 2016",
		"11/26/2016 18:00",
		"view event",
		"Thanksgiving 2016",
		"11/26/2016 18:00",
	}, "\n")+"\n")

	if !strings.Contains(out, "The following event has been removed: 11/26/2016 @ 6:00PM | Thanksgiving 2016") {
		t.Errorf("missing removal message:\n%s", out)
	}
	if !strings.Contains(out, "Event not found. Try again") {
		t.Errorf("missing not-found message after delete:\n%s", out)
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d, want 0", store.Len())
	}
}

func TestShellUpdate(t *testing.T) {
	store := testStore()
	_ = store.AddEvent("Thanksgiving 2016", thanksgiving, "Gather round again and share the joy.")

	runScript(t, store, strings.Join([]string{
		"update event",
		"Thanksgiving 2016",
		"11/26/2016 18:00",
		"time",
		"11/26/2016 16:00",
		"update event",
		"Thanksgiving 2016",
		"11/26/2016 16:00",
		"notes",
		"Black Friday has turned this into a commercialized holiday.",
		"update event",
		"Thanksgiving 2016",
		"11/26/2016 16:00",
		"title",
		"Turkey Day 2016",
	}, "\n")+"\n")

	events := store.ListAll()
	if len(events) != 1 {
		t.Fatalf("ListAll() = %d events, want 1", len(events))
	}
	want := "11/26/2016 @ 4:00PM | Turkey Day 2016      | Notes: Black Friday has turned this into a commercialized holiday."
	if got := events[0].String(); got != want {
		t.Errorf("event = %q, want %q", got, want)
	}
}

func TestShellUpdateMissing(t *testing.T) {
	out := runScript(t, testStore(), "update event\nGhost\n11/26/2016 18:00\n")
	if !strings.Contains(out, "Event not found. Try again") {
		t.Errorf("missing not-found message:\n%s", out)
	}
}

func TestShellEOFMidPrompt(t *testing.T) {
	store := testStore()
	runScript(t, store, "insert event\nHalf typed\n")
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d, want 0", store.Len())
	}
}
