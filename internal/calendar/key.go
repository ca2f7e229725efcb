package calendar

import "time"

// Key identifies one event: its title plus the instant it is scheduled at.
// The instant is stored as Unix seconds and nanoseconds so that two
// time.Time values naming the same instant in different zones produce
// equal keys, for any year time.Time can represent.
type Key struct {
	Title string
	Sec   int64
	Nsec  int32
}

// KeyOf builds the identity key for a (title, timestamp) pair.
func KeyOf(title string, at time.Time) Key {
	return Key{Title: title, Sec: at.Unix(), Nsec: int32(at.Nanosecond())}
}

// Time returns the key's instant in UTC.
func (k Key) Time() time.Time {
	return time.Unix(k.Sec, int64(k.Nsec)).UTC()
}

func (k Key) String() string {
	return k.Title + " @ " + k.Time().Format(time.RFC3339)
}
