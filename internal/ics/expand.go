package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "wallcal/internal/log"
	"wallcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the zone occurrences are converted into.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the occurrences, both inclusive. For
	// imports this is the store's scheduling window.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single UID's expansion. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the expanded occurrences, sorted by start, and the
// UIDs that hit the cap.
type ExpandResult struct {
	Occurrences     []model.Occurrence
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed VEVENTs into concrete occurrences inside
// the configured range. Single events pass through; RRULE events are
// expanded with EXDATEs removed; RECURRENCE-ID overrides replace the
// instance they name.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	var base []ParsedEvent
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		base = append(base, ev)
	}

	for _, ev := range base {
		var (
			occ    []model.Occurrence
			hitCap bool
		)
		if ev.RawRRule == "" {
			occ = expandSingle(ev, overrides[ev.UID], cfg)
		} else {
			occ, hitCap = expandRecurring(ev, overrides[ev.UID], cfg)
		}
		result.Occurrences = append(result.Occurrences, occ...)

		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Warn("expand: truncated occurrences for UID",
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		return result.Occurrences[i].Start.Before(result.Occurrences[j].Start)
	})
	return result, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	if o, ok := findOverride(overrides, ev.Start); ok {
		ev = o
	}
	if !inRange(ev.Start, cfg) {
		return nil
	}
	return []model.Occurrence{makeOccurrence(ev, ev.Start, cfg.DisplayLocation)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, start := range starts {
		inst := ev
		if o, ok := findOverride(overrides, start); ok {
			inst = o
			start = o.Start
			if !inRange(start, cfg) {
				continue
			}
		}
		out = append(out, makeOccurrence(inst, start, cfg.DisplayLocation))
	}
	return out, hitCap
}

// findOverride returns the override whose RECURRENCE-ID is the instant start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func inRange(t time.Time, cfg ExpandConfig) bool {
	return !t.Before(cfg.RangeStart) && !t.After(cfg.RangeEnd)
}

func makeOccurrence(ev ParsedEvent, start time.Time, loc *time.Location) model.Occurrence {
	local := start.In(loc)
	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: local.Format(time.RFC3339Nano),
		Summary:     ev.Summary,
		Description: ev.Description,
		AllDay:      ev.AllDay,
		Start:       local,
	}
}
