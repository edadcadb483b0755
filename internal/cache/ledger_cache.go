package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/metrics"
)

const (
	ledgerKeyPrefix        = "availability:ledger:"
	ledgerVersionKeyPrefix = "availability:ledger:ver:"
)

// LedgerCache хранит в Redis срез журнала специалиста на день.
// Кэшируются только входные данные: фильтрация всегда идёт со свежим now,
// а фиксация записи кэш не читает.
//
// Ключ данных содержит номер версии дня. Invalidate увеличивает версию,
// поэтому Set с версией, прочитанной до фиксации, пишет в ключ,
// который больше никто не прочитает.
//
// nil *LedgerCache — кэш выключен, все методы превращаются в no-op.
type LedgerCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.BookingMetrics
}

func NewLedgerCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, m *metrics.BookingMetrics) *LedgerCache {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerCache{client: client, ttl: ttl, logger: logger, metrics: m}
}

func ledgerKey(professionalID uuid.UUID, date civil.Date, version int64) string {
	return fmt.Sprintf("%s%s:%s:v%d", ledgerKeyPrefix, professionalID, date, version)
}

func ledgerVersionKey(professionalID uuid.UUID, date civil.Date) string {
	return fmt.Sprintf("%s%s:%s", ledgerVersionKeyPrefix, professionalID, date)
}

// versionTTL переживает любой ключ данных, записанный под текущей версией:
// иначе после истечения счётчик сбросится к нулю и оживит старые данные.
func (c *LedgerCache) versionTTL() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return 2 * c.ttl
}

type ledgerEntry struct {
	ID       uuid.UUID `json:"id"`
	Start    int       `json:"start"`
	Duration int       `json:"duration"`
	Status   string    `json:"status"`
}

// Get возвращает журнал и версию, под которой его надо класть обратно через Set.
// При промахе или ошибке Redis ok == false: кэш не должен ронять чтение.
// Версия -1 означает, что Redis недоступен и Set делать не нужно.
func (c *LedgerCache) Get(ctx context.Context, professionalID uuid.UUID, date civil.Date) ([]availability.Appointment, int64, bool) {
	if c == nil {
		return nil, -1, false
	}

	version, err := c.client.Get(ctx, ledgerVersionKey(professionalID, date)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache.ledger.version_failed", zap.Error(err))
		c.metrics.ObserveCache("ledger", false)
		return nil, -1, false
	}

	raw, err := c.client.Get(ctx, ledgerKey(professionalID, date, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache.ledger.get_failed", zap.Error(err))
			version = -1
		}
		c.metrics.ObserveCache("ledger", false)
		return nil, version, false
	}

	var entries []ledgerEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("cache.ledger.decode_failed", zap.Error(err))
		c.metrics.ObserveCache("ledger", false)
		return nil, version, false
	}

	out := make([]availability.Appointment, 0, len(entries))
	for _, e := range entries {
		out = append(out, availability.Appointment{
			ID:              e.ID,
			ProfessionalID:  professionalID,
			Date:            date,
			StartTime:       e.Start,
			DurationMinutes: e.Duration,
			Status:          availability.Status(e.Status),
		})
	}
	c.metrics.ObserveCache("ledger", true)
	return out, version, true
}

// Set кладёт журнал под версией, полученной из Get до чтения из БД.
func (c *LedgerCache) Set(ctx context.Context, professionalID uuid.UUID, date civil.Date, version int64, ledger []availability.Appointment) {
	if c == nil || version < 0 {
		return
	}

	entries := make([]ledgerEntry, 0, len(ledger))
	for _, a := range ledger {
		if a.ProfessionalID != professionalID || a.Date != date {
			continue
		}
		entries = append(entries, ledgerEntry{
			ID:       a.ID,
			Start:    a.StartTime,
			Duration: a.DurationMinutes,
			Status:   string(a.Status),
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("cache.ledger.encode_failed", zap.Error(err))
		return
	}

	_, err = c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, ledgerKey(professionalID, date, version), raw, c.ttl)
		if ttl := c.versionTTL(); ttl > 0 {
			p.Expire(ctx, ledgerVersionKey(professionalID, date), ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("cache.ledger.set_failed", zap.Error(err))
	}
}

// Invalidate вызывается после фиксации или отмены записи.
func (c *LedgerCache) Invalidate(ctx context.Context, professionalID uuid.UUID, date civil.Date) {
	if c == nil {
		return
	}
	key := ledgerVersionKey(professionalID, date)
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, key)
		if ttl := c.versionTTL(); ttl > 0 {
			p.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("cache.ledger.invalidate_failed", zap.Error(err))
	}
}
