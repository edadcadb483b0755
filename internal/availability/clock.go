package availability

import "time"

// Clock — источник текущего времени. Ядро само часы не читает.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock всегда возвращает один и тот же момент. Для тестов.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
