package availability

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

var ErrInvalidClockTime = errors.New("invalid clock time, expected HH:MM")

// Slot — кандидат на запись в конкретный день. Значение неизменяемое.
type Slot struct {
	Date      civil.Date
	StartTime int
	EndTime   int
}

// Duration возвращает длину слота в минутах.
func (s Slot) Duration() int {
	return s.EndTime - s.StartTime
}

// StartsAt переводит начало слота в абсолютный момент в поясе loc.
func (s Slot) StartsAt(loc *time.Location) time.Time {
	return at(s.Date, s.StartTime, loc)
}

// EndsAt возвращает абсолютный момент окончания слота.
func (s Slot) EndsAt(loc *time.Location) time.Time {
	return at(s.Date, s.EndTime, loc)
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date, FormatMinute(s.StartTime), FormatMinute(s.EndTime))
}

var ruWeekdays = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// Label — человекочитаемое представление слота для клиента,
// например "Понедельник, 06.01.2025, 09:00–09:30".
func (s Slot) Label() string {
	return fmt.Sprintf("%s, %02d.%02d.%04d, %s–%s",
		ruWeekdays[s.Date.In(time.UTC).Weekday()],
		s.Date.Day, int(s.Date.Month), s.Date.Year,
		FormatMinute(s.StartTime), FormatMinute(s.EndTime),
	)
}

// FormatMinute: 480 -> "08:00".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseMinute: "08:00" -> 480. Допускается "24:00" как конец суток.
func ParseMinute(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrInvalidClockTime
	}
	// только цифры: Atoi принял бы и знак ("+1", "-0")
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidClockTime
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, ErrInvalidClockTime
	}
	return h*60 + m, nil
}

func at(d civil.Date, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, minute, 0, 0, loc)
}

func weekdayOf(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}
