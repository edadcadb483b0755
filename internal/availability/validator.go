package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// Reason — причина отказа в записи. Это ожидаемый бизнес-исход, не ошибка.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonOutsideSchedule Reason = "OUTSIDE_SCHEDULE"
	ReasonOutsideHours    Reason = "OUTSIDE_HOURS"
	ReasonLunchConflict   Reason = "LUNCH_CONFLICT"
	ReasonDoubleBooked    Reason = "DOUBLE_BOOKED"
	ReasonTooFarAhead     Reason = "TOO_FAR_AHEAD"
	ReasonTooSoon         Reason = "TOO_SOON"
)

// Decision — результат проверки кандидата.
type Decision struct {
	Accepted bool
	Reason   Reason
}

func Accept() Decision { return Decision{Accepted: true} }

func Reject(r Reason) Decision { return Decision{Reason: r} }

func (d Decision) String() string {
	if d.Accepted {
		return "ACCEPTED"
	}
	return "REJECTED(" + string(d.Reason) + ")"
}

// Candidate — предлагаемая запись.
type Candidate struct {
	Date            civil.Date
	StartTime       int
	DurationMinutes int
}

// ValidateBooking проверяет кандидата против расписания и журнала.
// Вызывается повторно внутри транзакции записи: только её ответ решает,
// можно ли сохранять запись.
func ValidateBooking(s Schedule, ledger []Appointment, now time.Time, c Candidate) Decision {
	if !s.WorksOn(weekdayOf(c.Date)) {
		return Reject(ReasonOutsideSchedule)
	}

	// сравниваем разность, а не сумму: сумма переполняется на огромных длительностях
	if c.DurationMinutes <= 0 || c.StartTime < s.StartTime || c.DurationMinutes > s.EndTime-c.StartTime {
		return Reject(ReasonOutsideHours)
	}
	w := Window{Start: c.StartTime, End: c.StartTime + c.DurationMinutes}

	if s.Lunch != nil && w.Overlaps(*s.Lunch) {
		return Reject(ReasonLunchConflict)
	}

	if conflicts(s.occupied(c.StartTime, c.DurationMinutes), busyWindows(s, ledger, c.Date)) {
		return Reject(ReasonDoubleBooked)
	}

	if c.Date.After(horizon(s, now)) {
		return Reject(ReasonTooFarAhead)
	}

	if at(c.Date, c.StartTime, s.location()).Before(noticeCutoff(s, now)) {
		return Reject(ReasonTooSoon)
	}

	return Accept()
}
