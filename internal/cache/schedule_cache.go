package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/metrics"
)

// ScheduleLoader отдаёт расписания (обычно это repository.ScheduleRepository).
type ScheduleLoader interface {
	LoadSchedule(ctx context.Context, professionalID uuid.UUID) (availability.Schedule, error)
}

// ScheduleCache держит LRU с истечением поверх ScheduleLoader.
// Ошибки, включая ConfigError, не кэшируются.
type ScheduleCache struct {
	next    ScheduleLoader
	lru     *expirable.LRU[uuid.UUID, availability.Schedule]
	logger  *zap.Logger
	metrics *metrics.BookingMetrics
}

func NewScheduleCache(
	next ScheduleLoader,
	size int,
	ttl time.Duration,
	logger *zap.Logger,
	m *metrics.BookingMetrics,
) *ScheduleCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleCache{
		next:    next,
		lru:     expirable.NewLRU[uuid.UUID, availability.Schedule](size, nil, ttl),
		logger:  logger,
		metrics: m,
	}
}

func (c *ScheduleCache) LoadSchedule(ctx context.Context, professionalID uuid.UUID) (availability.Schedule, error) {
	if s, ok := c.lru.Get(professionalID); ok {
		c.metrics.ObserveCache("schedule", true)
		return s, nil
	}
	c.metrics.ObserveCache("schedule", false)
	c.logger.Debug("cache.schedule.miss", zap.String("professional_id", professionalID.String()))

	s, err := c.next.LoadSchedule(ctx, professionalID)
	if err != nil {
		return availability.Schedule{}, err
	}
	c.lru.Add(professionalID, s)
	return s, nil
}

// Invalidate сбрасывает расписание после его изменения.
func (c *ScheduleCache) Invalidate(professionalID uuid.UUID) {
	c.lru.Remove(professionalID)
}

func (c *ScheduleCache) Purge() {
	c.lru.Purge()
}
