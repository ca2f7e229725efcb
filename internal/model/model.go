package model

import "time"

// Occurrence is one concrete instant of an event, either produced by ICS
// recurrence expansion (before it is imported into the store) or read back
// out of the store for export.
type Occurrence struct {
	SourceID string // import source ID; empty for store exports
	UID      string // iCalendar UID; generated on export when empty

	// InstanceKey distinguishes occurrences of one recurring UID,
	// derived from the start time.
	InstanceKey string

	Summary     string // becomes the event title
	Description string // becomes the event notes

	AllDay bool

	// Start is the single instant the event occupies, in the display zone.
	Start time.Time
}
