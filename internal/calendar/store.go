package calendar

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/btree"

	appLog "wallcal/internal/log"
)

// windowYears is how far ahead of now an event may be scheduled.
const windowYears = 1

// btreeDegree is the branching factor of the timestamp index.
const btreeDegree = 16

// Clock returns the current time. It is read once per store operation, and
// the location of the time it returns is the store's reference location.
type Clock func() time.Time

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.now = c
		}
	}
}

// WithLocation reads "now" in loc. Timestamps are compared as instants;
// loc decides the wall clock that recurrence steps follow and that stored
// events are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.now = func() time.Time { return time.Now().In(loc) }
		}
	}
}

// slot holds every event scheduled at one instant, in insertion order.
type slot struct {
	at     time.Time
	events []*Event
}

func slotLess(a, b *slot) bool { return a.at.Before(b.at) }

// Store is the in-memory calendar. It owns two indices:
//
//   - byKey maps an identity key to its event for point lookups.
//   - byTime orders events by timestamp for chronological listing.
//
// Every mutation updates both under one lock before returning, so an event
// reachable from one index is always reachable from the other.
type Store struct {
	mu     sync.RWMutex
	now    Clock
	byKey  map[Key]*Event
	byTime *btree.BTreeG[*slot]
}

// NewStore returns an empty Store reading the system clock.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		byKey:  make(map[Key]*Event),
		byTime: btree.NewG[*slot](btreeDegree, slotLess),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the current scheduling window [now, now+1y]. Both bounds
// are in the reference location, which is also the zone stored events are
// kept and rendered in.
func (s *Store) Window() (from, to time.Time) {
	now := s.now()
	return now, now.AddDate(windowYears, 0, 0)
}

func checkWindow(at, from, to time.Time) error {
	if at.Before(from) || at.After(to) {
		return fmt.Errorf("%w: %s not within %s .. %s", ErrOutOfRange,
			at.Format(time.RFC3339), from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}

// AddEvent schedules a one-time event. An existing event with the same
// title and timestamp is replaced.
func (s *Store) AddEvent(title string, at time.Time, notes string) error {
	from, to := s.Window()
	if err := checkWindow(at, from, to); err != nil {
		return err
	}
	at = at.In(from.Location())

	s.mu.Lock()
	defer s.mu.Unlock()

	ev := NewEvent(title, at, notes)
	s.insert(&ev)
	appLog.Debug("event added", "key", ev.Key())
	return nil
}

// AddRecurringEvent schedules title at at and then once per freq step for
// as long as the next occurrence is strictly before now+1y. Only the first
// occurrence is checked against the window; it is always inserted.
func (s *Store) AddRecurringEvent(title string, at time.Time, notes string, freq Frequency) error {
	from, to := s.Window()
	if err := checkWindow(at, from, to); err != nil {
		return err
	}
	if !freq.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidArgument, string(freq))
	}
	// Steps follow the wall clock of the reference location.
	at = at.In(from.Location())

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for occ := at; ; {
		ev := NewEvent(title, occ, notes)
		s.insert(&ev)
		count++

		occ = freq.Next(occ)
		if !occ.Before(to) {
			break
		}
	}

	appLog.Debug("recurring event added",
		"title", title,
		"frequency", string(freq),
		"first", at.Format(time.RFC3339),
		"occurrences", count,
	)
	return nil
}

// RemoveEvent deletes the event at (title, at) from both indices and
// returns it.
func (s *Store) RemoveEvent(title string, at time.Time) (Event, error) {
	key := KeyOf(title, at)

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.byKey[key]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	s.unlink(ev)
	appLog.Debug("event removed", "key", key)
	return *ev, nil
}

// FindEvent returns the event at (title, at). A missing event is reported
// through ok, not an error.
func (s *Store) FindEvent(title string, at time.Time) (ev Event, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byKey[KeyOf(title, at)]
	if !ok {
		return Event{}, false
	}
	return *p, true
}

// UpdateTitle renames the event at (title, at). Only the identity index is
// re-keyed; the event keeps its timestamp slot. An existing event already
// holding the new identity is replaced.
func (s *Store) UpdateTitle(title string, at time.Time, newTitle string) error {
	oldKey := KeyOf(title, at)

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.byKey[oldKey]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldKey)
	}
	newKey := KeyOf(newTitle, ev.at)
	if newKey == oldKey {
		return nil
	}
	if displaced, ok := s.byKey[newKey]; ok {
		s.unlink(displaced)
	}

	delete(s.byKey, oldKey)
	ev.setTitle(newTitle)
	s.byKey[newKey] = ev

	appLog.Debug("event retitled", "from", oldKey, "to", newKey)
	return nil
}

// UpdateTimestamp moves the event at (title, at) to newAt. newAt must lie in
// the scheduling window; otherwise the event is left untouched.
func (s *Store) UpdateTimestamp(title string, at, newAt time.Time) error {
	oldKey := KeyOf(title, at)
	from, to := s.Window()

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.byKey[oldKey]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldKey)
	}
	if err := checkWindow(newAt, from, to); err != nil {
		return err
	}
	newAt = newAt.In(from.Location())
	newKey := KeyOf(ev.title, newAt)
	if newKey == oldKey {
		return nil
	}
	if displaced, ok := s.byKey[newKey]; ok {
		s.unlink(displaced)
	}

	s.unlink(ev)
	ev.setTimestamp(newAt)
	s.link(ev)

	appLog.Debug("event rescheduled", "from", oldKey, "to", newKey)
	return nil
}

// UpdateNotes replaces the notes of the event at (title, at).
func (s *Store) UpdateNotes(title string, at time.Time, notes string) error {
	key := KeyOf(title, at)

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.byKey[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	ev.setNotes(notes)
	return nil
}

// ListAll returns a snapshot of every event in ascending timestamp order.
// Events sharing a timestamp appear in insertion order.
func (s *Store) ListAll() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, len(s.byKey))
	s.byTime.Ascend(func(sl *slot) bool {
		for _, ev := range sl.events {
			out = append(out, *ev)
		}
		return true
	})
	return out
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Prune removes every event scheduled strictly before now and returns how
// many were removed.
func (s *Store) Prune() int {
	now := s.now()
	pivot := &slot{at: now}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*Event
	s.byTime.AscendLessThan(pivot, func(sl *slot) bool {
		stale = append(stale, sl.events...)
		return true
	})
	for _, ev := range stale {
		s.unlink(ev)
	}
	if len(stale) > 0 {
		appLog.Debug("pruned elapsed events", "count", len(stale), "before", now.Format(time.RFC3339))
	}
	return len(stale)
}

// insert stores ev under its key, replacing any event with the same key.
// Callers hold s.mu.
func (s *Store) insert(ev *Event) {
	if old, ok := s.byKey[ev.Key()]; ok {
		s.unlink(old)
	}
	s.link(ev)
}

// link adds ev to both indices. Callers hold s.mu.
func (s *Store) link(ev *Event) {
	s.byKey[ev.Key()] = ev

	if sl, ok := s.byTime.Get(&slot{at: ev.at}); ok {
		sl.events = append(sl.events, ev)
		return
	}
	s.byTime.ReplaceOrInsert(&slot{at: ev.at, events: []*Event{ev}})
}

// unlink removes ev from both indices. Callers hold s.mu.
func (s *Store) unlink(ev *Event) {
	delete(s.byKey, ev.Key())

	sl, ok := s.byTime.Get(&slot{at: ev.at})
	if !ok {
		return
	}
	for i, p := range sl.events {
		if p == ev {
			sl.events = append(sl.events[:i], sl.events[i+1:]...)
			break
		}
	}
	if len(sl.events) == 0 {
		s.byTime.Delete(sl)
	}
}
