package calendar

import (
	"fmt"
	"time"

	"wallcal/internal/model"
)

const (
	// renderLayout matches the wall-calendar line format, e.g. "11/26/2016 @ 6:00PM".
	renderLayout = "01/02/2006 @ 3:04PM"
	// titleWidth is the fixed column width of the title in a rendered line.
	titleWidth = 20
)

// Event is a single scheduled instant on the calendar.
//
// Title and timestamp form the event's identity; they only change through
// Store update operations, which keep both indices in step. Callers always
// receive copies, so mutating a returned Event is impossible.
type Event struct {
	title string
	at    time.Time
	notes string
}

// NewEvent constructs an Event. It does not validate the scheduling window;
// that is the Store's job.
func NewEvent(title string, at time.Time, notes string) Event {
	return Event{title: title, at: at, notes: notes}
}

func (e Event) Title() string        { return e.title }
func (e Event) Timestamp() time.Time { return e.at }
func (e Event) Notes() string        { return e.notes }

// Key returns the event's identity key.
func (e Event) Key() Key {
	return KeyOf(e.title, e.at)
}

func (e *Event) setTitle(title string)    { e.title = title }
func (e *Event) setTimestamp(t time.Time) { e.at = t }
func (e *Event) setNotes(notes string)    { e.notes = notes }

// String renders the event as one fixed-width line:
//
//	11/26/2016 @ 6:00PM | Thanksgiving 2016    | Notes: Gather round and share the joy.
//
// Titles longer than the column are truncated.
func (e Event) String() string {
	return fmt.Sprintf("%s | %-*.*s | Notes: %s",
		e.at.Format(renderLayout), titleWidth, titleWidth, e.title, e.notes)
}

// Occurrence converts the event into the shared occurrence shape used by
// the ICS encoder.
func (e Event) Occurrence() model.Occurrence {
	return model.Occurrence{
		InstanceKey: e.at.Format(time.RFC3339Nano),
		Summary:     e.title,
		Description: e.notes,
		Start:       e.at,
	}
}

// Occurrences converts events for export, keeping their order.
func Occurrences(events []Event) []model.Occurrence {
	out := make([]model.Occurrence, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Occurrence())
	}
	return out
}
