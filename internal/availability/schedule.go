package availability

import (
	"time"

	"github.com/google/uuid"
)

// Граница суток в минутах.
const MinutesPerDay = 24 * 60

// Window — полуоткрытый интервал [Start, End) в минутах от начала суток.
type Window struct {
	Start int
	End   int
}

// Overlaps сообщает, пересекаются ли два полуоткрытых интервала.
// Касание концами пересечением не считается.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

// Schedule — недельный шаблон доступности одного специалиста.
// Все времена суток заданы в минутах в часовом поясе Location.
type Schedule struct {
	ProfessionalID uuid.UUID

	WorkingDays []time.Weekday

	StartTime    int
	EndTime      int
	SlotDuration int
	BufferTime   int

	// nil — обеда нет.
	Lunch *Window

	AdvanceBookingDays int
	MinNoticeHours     int

	IsActive bool

	// Часовой пояс бизнеса. Задаётся явно, дефолта нет.
	Location *time.Location
}

// Validate проверяет инварианты расписания и возвращает *ConfigError
// на первом нарушении.
func (s Schedule) Validate() error {
	if s.Location == nil {
		return configErr("time_zone", "business timezone is required")
	}
	if s.StartTime < 0 || s.StartTime > MinutesPerDay {
		return configErr("start_time", "must be within [0, %d], got %d", MinutesPerDay, s.StartTime)
	}
	if s.EndTime < 0 || s.EndTime > MinutesPerDay {
		return configErr("end_time", "must be within [0, %d], got %d", MinutesPerDay, s.EndTime)
	}
	if s.StartTime >= s.EndTime {
		return configErr("start_time", "must be before end_time (%d >= %d)", s.StartTime, s.EndTime)
	}
	if s.SlotDuration <= 0 || s.SlotDuration > MinutesPerDay {
		return configErr("slot_duration", "must be within [1, %d], got %d", MinutesPerDay, s.SlotDuration)
	}
	if s.BufferTime < 0 || s.BufferTime > MinutesPerDay {
		return configErr("buffer_time", "must be within [0, %d], got %d", MinutesPerDay, s.BufferTime)
	}
	if s.AdvanceBookingDays < 0 {
		return configErr("advance_booking_days", "must not be negative, got %d", s.AdvanceBookingDays)
	}
	if s.MinNoticeHours < 0 {
		return configErr("min_notice_hours", "must not be negative, got %d", s.MinNoticeHours)
	}
	for _, d := range s.WorkingDays {
		if d < time.Sunday || d > time.Saturday {
			return configErr("working_days", "weekday %d is out of range 0..6", d)
		}
	}
	if s.Lunch != nil {
		if s.Lunch.Start >= s.Lunch.End {
			return configErr("lunch", "lunch_start must be before lunch_end (%d >= %d)", s.Lunch.Start, s.Lunch.End)
		}
		if s.Lunch.Start < s.StartTime || s.Lunch.End > s.EndTime {
			return configErr("lunch", "lunch window [%d, %d) lies outside working hours [%d, %d)",
				s.Lunch.Start, s.Lunch.End, s.StartTime, s.EndTime)
		}
	}
	return nil
}

// WorksOn сообщает, принимает ли расписание записи в указанный день недели.
func (s Schedule) WorksOn(d time.Weekday) bool {
	if !s.IsActive {
		return false
	}
	return containsWeekday(s.WorkingDays, d)
}

// occupied возвращает интервал, занятый записью длительностью dur с учётом буфера.
// Слагаемые ограничены сутками, поэтому конец не переполняется даже
// для испорченных строк журнала.
func (s Schedule) occupied(start, dur int) Window {
	start = clampMinutes(start, -MinutesPerDay, MinutesPerDay)
	dur = clampMinutes(dur, 0, MinutesPerDay)
	buf := clampMinutes(s.BufferTime, 0, MinutesPerDay)
	return Window{Start: start, End: start + dur + buf}
}

func clampMinutes(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s Schedule) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func containsWeekday(list []time.Weekday, w time.Weekday) bool {
	for _, d := range list {
		if d == w {
			return true
		}
	}
	return false
}
