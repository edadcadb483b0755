package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// Свободные слоты одного дня.
type DaySlots struct {
	Date  civil.Date
	Slots []Slot
}

// AvailableRange считает доступность по дням на отрезке [from, to].
// Отрезок обрезается по горизонту записи. Если from > to, границы меняются местами.
func AvailableRange(s Schedule, from, to civil.Date, ledger []Appointment, now time.Time) []DaySlots {
	if to.Before(from) {
		from, to = to, from
	}
	if last := horizon(s, now); to.After(last) {
		to = last
	}

	days := []DaySlots{}
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, DaySlots{Date: d, Slots: Available(s, d, ledger, now)})
	}
	return days
}
