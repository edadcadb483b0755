package availability

import (
	"errors"
	"testing"
	"time"
)

func TestParseMinute(t *testing.T) {
	cases := map[string]int{"00:00": 0, "08:00": 480, "12:30": 750, "23:59": 1439, "24:00": 1440}
	for in, want := range cases {
		got, err := ParseMinute(in)
		if err != nil {
			t.Fatalf("ParseMinute(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMinute(%q) = %d, want %d", in, got, want)
		}
		if in != "24:00" && FormatMinute(got) != in {
			t.Fatalf("FormatMinute(%d) = %q", got, FormatMinute(got))
		}
	}
}

func TestParseMinute_Invalid(t *testing.T) {
	for _, in := range []string{"", "8:00", "08-00", "25:00", "24:01", "10:60", "ab:cd", "+1:00", "08:+5", "-0:30", "08:-0", " 8:00"} {
		if _, err := ParseMinute(in); !errors.Is(err, ErrInvalidClockTime) {
			t.Fatalf("ParseMinute(%q): expected ErrInvalidClockTime, got %v", in, err)
		}
	}
}

func TestSlot_StartsAtAndLabel(t *testing.T) {
	loc := mustLocation(t, "Europe/Moscow")
	sl := Slot{Date: monday, StartTime: 540, EndTime: 570}

	want := time.Date(2025, time.January, 6, 6, 0, 0, 0, time.UTC)
	if !sl.StartsAt(loc).Equal(want) {
		t.Fatalf("expected %v, got %v", want, sl.StartsAt(loc).UTC())
	}
	if got := sl.EndsAt(loc).Sub(sl.StartsAt(loc)); got != 30*time.Minute {
		t.Fatalf("unexpected duration %v", got)
	}
	if got := sl.Label(); got != "Понедельник, 06.01.2025, 09:00–09:30" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := sl.String(); got != "2025-01-06 09:00-09:30" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestAvailableRange_ClipsToHorizon(t *testing.T) {
	s := baseSchedule()
	s.AdvanceBookingDays = 3
	now := time.Date(2025, time.January, 6, 7, 0, 0, 0, time.UTC)

	days := AvailableRange(s, monday.AddDays(10), monday, nil, now)

	if len(days) != 4 {
		t.Fatalf("expected 4 days (Mon..Thu), got %d", len(days))
	}
	for i, d := range days {
		if d.Date != monday.AddDays(i) {
			t.Fatalf("day %d: expected %v, got %v", i, monday.AddDays(i), d.Date)
		}
		if len(d.Slots) != 20 {
			t.Fatalf("day %v: expected 20 slots, got %d", d.Date, len(d.Slots))
		}
	}
}

func TestAvailableRange_WeekendIsEmpty(t *testing.T) {
	s := baseSchedule()
	days := AvailableRange(s, saturday, saturday.AddDays(1), nil, farBefore())

	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	for _, d := range days {
		if len(d.Slots) != 0 {
			t.Fatalf("weekend day %v must have no slots", d.Date)
		}
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	var c Clock = FixedClock(at)
	if !c.Now().Equal(at) {
		t.Fatalf("expected %v, got %v", at, c.Now())
	}
}
