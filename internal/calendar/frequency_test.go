package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestFrequencyNext(t *testing.T) {
	tests := []struct {
		name string
		freq Frequency
		from time.Time
		want time.Time
	}{
		{"daily crosses month", Daily, time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)},
		{"daily leap day", Daily, time.Date(2016, 2, 28, 8, 0, 0, 0, time.UTC), time.Date(2016, 2, 29, 8, 0, 0, 0, time.UTC)},
		{"weekly crosses year", Weekly, time.Date(2026, 12, 29, 8, 0, 0, 0, time.UTC), time.Date(2027, 1, 5, 8, 0, 0, 0, time.UTC)},
		{"monthly keeps day", Monthly, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC)},
		{"monthly clamps common february", Monthly, time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC), time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC)},
		{"monthly clamps leap february", Monthly, time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)},
		{"monthly clamps thirty-day month", Monthly, time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC), time.Date(2026, 4, 30, 8, 0, 0, 0, time.UTC)},
		{"monthly december", Monthly, time.Date(2026, 12, 15, 8, 0, 0, 0, time.UTC), time.Date(2027, 1, 15, 8, 0, 0, 0, time.UTC)},
		{"yearly keeps day", Yearly, time.Date(2026, 7, 4, 21, 0, 0, 0, time.UTC), time.Date(2027, 7, 4, 21, 0, 0, 0, time.UTC)},
		{"yearly from leap day", Yearly, time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.freq.Next(tt.from); !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestFrequencyNextKeepsWallClock(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// DST ends on 2026-11-01 in Los Angeles.
	from := time.Date(2026, 10, 31, 9, 0, 0, 0, la)
	got := Daily.Next(from)
	if got.Hour() != 9 || got.Day() != 1 {
		t.Errorf("Next across DST = %v, want 09:00 on Nov 1", got)
	}
	if d := got.Sub(from); d != 25*time.Hour {
		t.Errorf("elapsed = %v, want 25h", d)
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{in: "daily", want: Daily},
		{in: "WEEKLY", want: Weekly},
		{in: " Monthly ", want: Monthly},
		{in: "yearly", want: Yearly},
		{in: "hourly", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrequency(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("ParseFrequency(%q) error = %v, want ErrInvalidArgument", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFrequency(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}
