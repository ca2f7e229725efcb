package ics

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"wallcal/internal/model"
)

const productID = "-//wallcal//wallcal//EN"

// uidNamespace seeds name-based UIDs for events that have none, so the
// same (title, start) exports under the same UID every time.
var uidNamespace = uuid.MustParse("6f1d7a0e-3c55-4b8e-9a43-2f6c1c0b7d21")

// Encode writes occurrences as a VCALENDAR. Each occurrence becomes a
// VEVENT with a DTSTART and no DTEND, i.e. a single instant.
func Encode(w io.Writer, name string, occs []model.Occurrence) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
	}

	stamp := time.Now().UTC()
	for _, occ := range occs {
		ev := cal.AddEvent(EventUID(occ))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(occ.Start)
		ev.SetSummary(occ.Summary)
		if occ.Description != "" {
			ev.SetDescription(occ.Description)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// EventUID returns occ.UID, or a stable name-based UID derived from the
// summary and start instant when it is empty.
func EventUID(occ model.Occurrence) string {
	if occ.UID != "" {
		return occ.UID
	}
	name := occ.Summary + "\x00" + occ.Start.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@wallcal"
}
