package availability

import "cloud.google.com/go/civil"

// GenerateSlots строит упорядоченную сетку слотов на дату.
// Неактивное расписание или нерабочий день дают пустой результат, не ошибку.
// Шаг сетки — SlotDuration+BufferTime; слоты, задевающие обед, пропускаются
// без сдвига остальных.
func GenerateSlots(s Schedule, date civil.Date) []Slot {
	slots := []Slot{}
	step := s.SlotDuration + s.BufferTime
	if s.SlotDuration <= 0 || step <= 0 || !s.WorksOn(weekdayOf(date)) {
		return slots
	}

	for start := s.StartTime; start+s.SlotDuration <= s.EndTime; start += step {
		w := Window{Start: start, End: start + s.SlotDuration}
		if s.Lunch != nil && w.Overlaps(*s.Lunch) {
			continue
		}
		slots = append(slots, Slot{Date: date, StartTime: w.Start, EndTime: w.End})
	}
	return slots
}
