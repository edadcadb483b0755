package availability

import (
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

var (
	monday   = civil.Date{Year: 2025, Month: time.January, Day: 6}
	saturday = civil.Date{Year: 2025, Month: time.January, Day: 11}
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %q: %v", name, err)
	}
	return loc
}

// baseSchedule — пн-пт 08:00–18:00, слоты по 30 минут, без буфера и обеда.
func baseSchedule() Schedule {
	return Schedule{
		ProfessionalID:     uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		WorkingDays:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartTime:          480,
		EndTime:            1080,
		SlotDuration:       30,
		AdvanceBookingDays: 30,
		IsActive:           true,
		Location:           time.UTC,
	}
}

// до понедельника неделя, ограничения по уведомлению и горизонту не срабатывают
func farBefore() time.Time {
	return time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)
}

func starts(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, FormatMinute(s.StartTime))
	}
	return out
}

func containsStart(slots []Slot, minute int) bool {
	for _, s := range slots {
		if s.StartTime == minute {
			return true
		}
	}
	return false
}

//
// Validate
//

func TestScheduleValidate_OK(t *testing.T) {
	s := baseSchedule()
	s.Lunch = &Window{Start: 720, End: 780}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid schedule, got %v", err)
	}
}

func TestScheduleValidate_Errors(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Schedule)
		field string
	}{
		{"start after end", func(s *Schedule) { s.StartTime, s.EndTime = 1080, 480 }, "start_time"},
		{"start equals end", func(s *Schedule) { s.EndTime = s.StartTime }, "start_time"},
		{"end past midnight", func(s *Schedule) { s.EndTime = 1500 }, "end_time"},
		{"zero slot", func(s *Schedule) { s.SlotDuration = 0 }, "slot_duration"},
		{"slot longer than a day", func(s *Schedule) { s.SlotDuration = MinutesPerDay + 1 }, "slot_duration"},
		{"negative buffer", func(s *Schedule) { s.BufferTime = -5 }, "buffer_time"},
		{"huge buffer", func(s *Schedule) { s.BufferTime = math.MaxInt }, "buffer_time"},
		{"negative horizon", func(s *Schedule) { s.AdvanceBookingDays = -1 }, "advance_booking_days"},
		{"negative notice", func(s *Schedule) { s.MinNoticeHours = -1 }, "min_notice_hours"},
		{"bad weekday", func(s *Schedule) { s.WorkingDays = []time.Weekday{7} }, "working_days"},
		{"inverted lunch", func(s *Schedule) { s.Lunch = &Window{Start: 780, End: 720} }, "lunch"},
		{"lunch outside hours", func(s *Schedule) { s.Lunch = &Window{Start: 1050, End: 1110} }, "lunch"},
		{"no timezone", func(s *Schedule) { s.Location = nil }, "time_zone"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := baseSchedule()
			tc.mut(&s)

			err := s.Validate()
			if !errors.Is(err, ErrInvalidSchedule) {
				t.Fatalf("expected ErrInvalidSchedule, got %v", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, cfgErr.Field)
			}
		})
	}
}

//
// GenerateSlots
//

func TestGenerateSlots_FullDay(t *testing.T) {
	slots := GenerateSlots(baseSchedule(), monday)

	if len(slots) != 20 {
		t.Fatalf("expected 20 slots, got %d: %v", len(slots), starts(slots))
	}
	if slots[0].StartTime != 480 || slots[0].EndTime != 510 {
		t.Fatalf("unexpected first slot %v", slots[0])
	}
	last := slots[len(slots)-1]
	if last.StartTime != 1050 || last.EndTime != 1080 {
		t.Fatalf("unexpected last slot %v", last)
	}
}

func TestGenerateSlots_SkipsLunch(t *testing.T) {
	s := baseSchedule()
	s.Lunch = &Window{Start: 720, End: 780}

	slots := GenerateSlots(s, monday)

	if len(slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(slots))
	}
	if containsStart(slots, 720) || containsStart(slots, 750) {
		t.Fatalf("lunch slots must be absent: %v", starts(slots))
	}
	if !containsStart(slots, 690) || !containsStart(slots, 780) {
		t.Fatalf("slots around lunch must stay: %v", starts(slots))
	}
}

func TestGenerateSlots_LunchNotAlignedSkipsWholeSlot(t *testing.T) {
	s := baseSchedule()
	s.Lunch = &Window{Start: 735, End: 765}

	slots := GenerateSlots(s, monday)

	// 12:00 и 12:30 задевают обед, сетка не сдвигается
	if containsStart(slots, 720) || containsStart(slots, 750) || containsStart(slots, 735) {
		t.Fatalf("unexpected slots near lunch: %v", starts(slots))
	}
	if !containsStart(slots, 780) {
		t.Fatalf("expected 13:00 slot to remain")
	}
}

func TestGenerateSlots_BufferStep(t *testing.T) {
	s := baseSchedule()
	s.SlotDuration = 45
	s.BufferTime = 15

	slots := GenerateSlots(s, monday)

	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d: %v", len(slots), starts(slots))
	}
	for i, sl := range slots {
		if sl.Duration() != 45 {
			t.Fatalf("slot %d has duration %d", i, sl.Duration())
		}
		if i > 0 && sl.StartTime-slots[i-1].StartTime != 60 {
			t.Fatalf("expected step of 60 minutes, got %v", starts(slots))
		}
	}
}

func TestGenerateSlots_TailDropped(t *testing.T) {
	s := baseSchedule()
	s.EndTime = 1070 // последний полный слот 17:00–17:30

	slots := GenerateSlots(s, monday)

	last := slots[len(slots)-1]
	if last.EndTime > s.EndTime {
		t.Fatalf("slot %v extends past end of day", last)
	}
	if last.StartTime != 1020 {
		t.Fatalf("expected last slot at 17:00, got %s", FormatMinute(last.StartTime))
	}
}

func TestGenerateSlots_NonWorkingDay(t *testing.T) {
	slots := GenerateSlots(baseSchedule(), saturday)
	if slots == nil || len(slots) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", slots)
	}
}

func TestGenerateSlots_NonAdvancingStepIsEmpty(t *testing.T) {
	s := baseSchedule()
	s.BufferTime = -s.SlotDuration

	done := make(chan []Slot, 1)
	go func() { done <- GenerateSlots(s, monday) }()

	select {
	case slots := <-done:
		if slots == nil || len(slots) != 0 {
			t.Fatalf("expected empty non-nil result, got %d slots", len(slots))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("GenerateSlots did not return for a non-positive step")
	}
}

func TestGenerateSlots_Inactive(t *testing.T) {
	s := baseSchedule()
	s.IsActive = false
	if slots := GenerateSlots(s, monday); len(slots) != 0 {
		t.Fatalf("expected no slots for inactive schedule, got %d", len(slots))
	}
}

func TestGenerateSlots_Properties(t *testing.T) {
	schedules := []Schedule{baseSchedule()}

	withLunch := baseSchedule()
	withLunch.Lunch = &Window{Start: 700, End: 790}
	withLunch.BufferTime = 10
	withLunch.SlotDuration = 50
	schedules = append(schedules, withLunch)

	odd := baseSchedule()
	odd.StartTime = 545
	odd.EndTime = 1013
	odd.SlotDuration = 17
	odd.BufferTime = 3
	schedules = append(schedules, odd)

	for _, s := range schedules {
		first := GenerateSlots(s, monday)
		second := GenerateSlots(s, monday)

		if len(first) != len(second) {
			t.Fatalf("generation is not deterministic")
		}
		for i, sl := range first {
			if sl != second[i] {
				t.Fatalf("generation is not deterministic at %d", i)
			}
			if sl.Duration() != s.SlotDuration {
				t.Fatalf("slot %v has wrong duration", sl)
			}
			if sl.StartTime < s.StartTime || sl.EndTime > s.EndTime {
				t.Fatalf("slot %v is outside working hours", sl)
			}
			if s.Lunch != nil && (Window{sl.StartTime, sl.EndTime}).Overlaps(*s.Lunch) {
				t.Fatalf("slot %v overlaps lunch", sl)
			}
			if i > 0 && sl.StartTime < first[i-1].EndTime {
				t.Fatalf("slots %v and %v overlap or are unordered", first[i-1], sl)
			}
		}
	}
}

//
// FilterAvailable
//

func TestFilterAvailable_RemovesBookedSlot(t *testing.T) {
	s := baseSchedule()
	slots := GenerateSlots(s, monday)
	ledger := []Appointment{{
		ProfessionalID:  s.ProfessionalID,
		Date:            monday,
		StartTime:       540,
		DurationMinutes: 30,
		Status:          StatusConfirmed,
	}}

	got := FilterAvailable(slots, s, ledger, farBefore())

	if len(got) != len(slots)-1 {
		t.Fatalf("expected exactly one slot removed, got %d of %d", len(got), len(slots))
	}
	if containsStart(got, 540) {
		t.Fatalf("09:00 must be removed")
	}
}

func TestFilterAvailable_IgnoresCancelledAndForeign(t *testing.T) {
	s := baseSchedule()
	slots := GenerateSlots(s, monday)
	ledger := []Appointment{
		{ProfessionalID: s.ProfessionalID, Date: monday, StartTime: 540, DurationMinutes: 30, Status: StatusCancelled},
		{ProfessionalID: uuid.New(), Date: monday, StartTime: 600, DurationMinutes: 30, Status: StatusConfirmed},
		{ProfessionalID: s.ProfessionalID, Date: monday.AddDays(1), StartTime: 660, DurationMinutes: 30, Status: StatusConfirmed},
	}

	got := FilterAvailable(slots, s, ledger, farBefore())

	if len(got) != len(slots) {
		t.Fatalf("expected nothing removed, got %v", starts(got))
	}
}

func TestFilterAvailable_LongAppointmentBlocksSeveral(t *testing.T) {
	s := baseSchedule()
	slots := GenerateSlots(s, monday)
	ledger := []Appointment{{
		ProfessionalID: s.ProfessionalID, Date: monday, StartTime: 555, DurationMinutes: 60, Status: StatusScheduled,
	}}

	got := FilterAvailable(slots, s, ledger, farBefore())

	// 09:15–10:15 задевает 09:00, 09:30, 10:00
	for _, m := range []int{540, 570, 600} {
		if containsStart(got, m) {
			t.Fatalf("slot %s must be blocked", FormatMinute(m))
		}
	}
	if !containsStart(got, 630) || !containsStart(got, 510) {
		t.Fatalf("neighbours must stay free: %v", starts(got))
	}
}

func TestFilterAvailable_CorruptLedgerDurationStillBlocks(t *testing.T) {
	s := baseSchedule()
	s.BufferTime = 10
	slots := GenerateSlots(s, monday)
	ledger := []Appointment{{
		ProfessionalID: s.ProfessionalID, Date: monday, StartTime: 600, DurationMinutes: math.MaxInt - 100, Status: StatusScheduled,
	}}

	got := FilterAvailable(slots, s, ledger, farBefore())

	for _, sl := range got {
		if sl.StartTime >= 600 {
			t.Fatalf("slot %s must be blocked by the oversized entry", FormatMinute(sl.StartTime))
		}
	}
	if !containsStart(got, 480) {
		t.Fatalf("slots before the entry must stay free: %v", starts(got))
	}
}

func TestFilterAvailable_BufferAfterAppointment(t *testing.T) {
	s := baseSchedule()
	s.SlotDuration = 30
	s.BufferTime = 10
	slots := GenerateSlots(s, monday) // 08:00, 08:40, 09:20, ...

	// запись 08:50–09:20, буфер после неё до 09:30
	ledger := []Appointment{{
		ProfessionalID: s.ProfessionalID, Date: monday, StartTime: 530, DurationMinutes: 30, Status: StatusConfirmed,
	}}

	got := FilterAvailable(slots, s, ledger, farBefore())

	if !containsStart(got, 480) {
		t.Fatalf("08:00 slot with buffer ends at 08:40, expected free: %v", starts(got))
	}
	if containsStart(got, 520) || containsStart(got, 560) {
		t.Fatalf("08:40 and 09:20 slots overlap appointment: %v", starts(got))
	}
	if !containsStart(got, 600) {
		t.Fatalf("10:00 slot starts after buffer, expected free: %v", starts(got))
	}
}

func TestFilterAvailable_MinNotice(t *testing.T) {
	s := baseSchedule()
	s.MinNoticeHours = 2
	slots := GenerateSlots(s, monday)
	now := time.Date(2025, time.January, 6, 8, 15, 0, 0, time.UTC)

	got := FilterAvailable(slots, s, nil, now)

	for _, m := range []int{480, 510, 540, 570, 600} {
		if containsStart(got, m) {
			t.Fatalf("slot %s must be removed by notice", FormatMinute(m))
		}
	}
	if got[0].StartTime != 630 {
		t.Fatalf("expected first available slot at 10:30, got %v", starts(got))
	}
	if len(got) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(got))
	}
}

func TestFilterAvailable_Horizon(t *testing.T) {
	s := baseSchedule()
	s.AdvanceBookingDays = 7
	s.WorkingDays = []time.Weekday{0, 1, 2, 3, 4, 5, 6}
	now := time.Date(2025, time.January, 6, 7, 0, 0, 0, time.UTC)

	var slots []Slot
	for i := 0; i <= 10; i++ {
		slots = append(slots, GenerateSlots(s, monday.AddDays(i))...)
	}

	got := FilterAvailable(slots, s, nil, now)

	lastAllowed := monday.AddDays(7)
	for _, sl := range got {
		if sl.Date.After(lastAllowed) {
			t.Fatalf("slot %v is beyond horizon", sl)
		}
	}
	if !containsDate(got, lastAllowed) {
		t.Fatalf("day 7 must still be bookable")
	}
	if containsDate(got, monday.AddDays(8)) {
		t.Fatalf("day 8 must be absent")
	}
}

func TestFilterAvailable_HorizonUsesBusinessTimezone(t *testing.T) {
	s := baseSchedule()
	s.Location = mustLocation(t, "Asia/Tokyo")
	s.AdvanceBookingDays = 0

	// в UTC ещё 5 января, в Токио уже 6-е
	now := time.Date(2025, time.January, 5, 20, 0, 0, 0, time.UTC)

	got := Available(s, monday, nil, now)
	if len(got) == 0 {
		t.Fatalf("expected Monday bookable in business timezone")
	}

	s.Location = mustLocation(t, "America/New_York")
	if got := Available(s, monday, nil, now); len(got) != 0 {
		t.Fatalf("in New York it is still Sunday, Monday must be beyond horizon: %v", starts(got))
	}
}

func TestFilterAvailable_NoticeUsesBusinessTimezone(t *testing.T) {
	s := baseSchedule()
	s.Location = mustLocation(t, "Europe/Moscow") // UTC+3
	s.MinNoticeHours = 1

	// 06:00 UTC = 09:00 по Москве
	now := time.Date(2025, time.January, 6, 6, 0, 0, 0, time.UTC)

	got := Available(s, monday, nil, now)
	if got[0].StartTime != 600 {
		t.Fatalf("expected first slot at 10:00 Moscow time, got %v", starts(got))
	}
}

func TestFilterAvailable_Subsequence(t *testing.T) {
	s := baseSchedule()
	s.MinNoticeHours = 1
	slots := GenerateSlots(s, monday)
	ledger := []Appointment{
		{ProfessionalID: s.ProfessionalID, Date: monday, StartTime: 600, DurationMinutes: 90, Status: StatusConfirmed},
	}
	now := time.Date(2025, time.January, 6, 9, 10, 0, 0, time.UTC)

	got := FilterAvailable(slots, s, ledger, now)

	j := 0
	for _, sl := range got {
		for j < len(slots) && slots[j] != sl {
			j++
		}
		if j == len(slots) {
			t.Fatalf("output is not a subsequence of input: %v", starts(got))
		}
		j++
	}
}

func TestFilterAvailable_EmptyInput(t *testing.T) {
	got := FilterAvailable(nil, baseSchedule(), nil, farBefore())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result")
	}
}

func containsDate(slots []Slot, d civil.Date) bool {
	for _, s := range slots {
		if s.Date == d {
			return true
		}
	}
	return false
}
