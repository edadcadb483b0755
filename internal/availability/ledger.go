package availability

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Status — состояние записи во внешнем журнале.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment — запись журнала. Ядро только читает её.
type Appointment struct {
	ID              uuid.UUID
	ProfessionalID  uuid.UUID
	Date            civil.Date
	StartTime       int
	DurationMinutes int
	Status          Status
}

// Отменённые записи слоты не блокируют.
func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// EndTime возвращает конец записи без учёта буфера.
func (a Appointment) EndTime() int {
	return a.StartTime + a.DurationMinutes
}

// busyWindows отбирает занятые интервалы специалиста на дату.
func busyWindows(s Schedule, ledger []Appointment, date civil.Date) []Window {
	var busy []Window
	for _, a := range ledger {
		if !a.Active() || a.ProfessionalID != s.ProfessionalID || a.Date != date {
			continue
		}
		busy = append(busy, s.occupied(a.StartTime, a.DurationMinutes))
	}
	return busy
}

func conflicts(w Window, busy []Window) bool {
	for _, b := range busy {
		if w.Overlaps(b) {
			return true
		}
	}
	return false
}
