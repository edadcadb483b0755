package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// FilterAvailable оставляет только слоты, доступные для записи в момент now.
// Результат является подпоследовательностью slots в том же порядке.
// Порядок проверок: журнал, горизонт, минимальное уведомление.
func FilterAvailable(slots []Slot, s Schedule, ledger []Appointment, now time.Time) []Slot {
	out := make([]Slot, 0, len(slots))
	if len(slots) == 0 {
		return out
	}

	loc := s.location()
	lastDay := horizon(s, now)
	earliest := noticeCutoff(s, now)

	// журнал группируем по дате один раз
	busy := make(map[civil.Date][]Window)
	for _, sl := range slots {
		if _, ok := busy[sl.Date]; !ok {
			busy[sl.Date] = busyWindows(s, ledger, sl.Date)
		}
	}

	for _, sl := range slots {
		if conflicts(s.occupied(sl.StartTime, sl.Duration()), busy[sl.Date]) {
			continue
		}
		if sl.Date.After(lastDay) {
			continue
		}
		if sl.StartsAt(loc).Before(earliest) {
			continue
		}
		out = append(out, sl)
	}
	return out
}

// Available генерирует и фильтрует слоты за один вызов.
func Available(s Schedule, date civil.Date, ledger []Appointment, now time.Time) []Slot {
	return FilterAvailable(GenerateSlots(s, date), s, ledger, now)
}

// horizon возвращает последний календарный день (в поясе бизнеса), доступный для записи.
func horizon(s Schedule, now time.Time) civil.Date {
	return civil.DateOf(now.In(s.location())).AddDays(s.AdvanceBookingDays)
}

func noticeCutoff(s Schedule, now time.Time) time.Time {
	return now.Add(time.Duration(s.MinNoticeHours) * time.Hour)
}
