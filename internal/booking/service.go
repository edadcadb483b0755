package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/cache"
	"github.com/Leganyst/appointment-availability/internal/metrics"
	"github.com/Leganyst/appointment-availability/internal/model"
	"github.com/Leganyst/appointment-availability/internal/repository"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	// Сохранённое расписание нарушает инварианты. Это проблема администратора,
	// клиенту отдаётся как временная недоступность.
	ErrScheduleMisconfigured = errors.New("schedule is misconfigured")
	ErrAlreadyCancelled      = repository.ErrAlreadyCancelled
)

// Максимальная длина периода в ListRange.
const MaxRangeDays = 31

type Deps struct {
	Schedules     repository.ScheduleRepository
	Appointments  repository.AppointmentRepository
	Professionals repository.ProfessionalRepository
	Services      repository.ServiceRepository

	// Необязательные.
	ScheduleCache *cache.ScheduleCache
	LedgerCache   *cache.LedgerCache
	Metrics       *metrics.BookingMetrics
	Logger        *zap.Logger
	Clock         availability.Clock
}

// Service связывает хранилище с чистым ядром availability.
type Service struct {
	schedules     repository.ScheduleRepository
	loader        cache.ScheduleLoader
	scheduleCache *cache.ScheduleCache
	appointments  repository.AppointmentRepository
	professionals repository.ProfessionalRepository
	services      repository.ServiceRepository
	ledgerCache   *cache.LedgerCache
	metrics       *metrics.BookingMetrics
	logger        *zap.Logger
	clock         availability.Clock
}

func NewService(d Deps) *Service {
	s := &Service{
		schedules:     d.Schedules,
		loader:        d.Schedules,
		scheduleCache: d.ScheduleCache,
		appointments:  d.Appointments,
		professionals: d.Professionals,
		services:      d.Services,
		ledgerCache:   d.LedgerCache,
		metrics:       d.Metrics,
		logger:        d.Logger,
		clock:         d.Clock,
	}
	if d.ScheduleCache != nil {
		s.loader = d.ScheduleCache
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = availability.SystemClock{}
	}
	return s
}

// BookRequest — запрос на запись. DurationMinutes = 0 — длительность берётся
// из услуги, а если её нет, из размера слота.
type BookRequest struct {
	ProfessionalID  uuid.UUID
	ServiceID       *uuid.UUID
	ClientID        *uuid.UUID
	Date            civil.Date
	StartTime       int
	DurationMinutes int
	Comment         string
}

func (s *Service) Schedule(ctx context.Context, professionalID uuid.UUID) (availability.Schedule, error) {
	sch, err := s.loader.LoadSchedule(ctx, professionalID)
	if err == nil {
		return sch, nil
	}

	var cfgErr *availability.ConfigError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return availability.Schedule{}, fmt.Errorf("schedule for professional %s: %w", professionalID, ErrNotFound)
	case errors.As(err, &cfgErr):
		s.logger.Error("schedule.misconfigured",
			zap.String("professional_id", professionalID.String()),
			zap.String("field", cfgErr.Field),
			zap.String("reason", cfgErr.Reason),
		)
		return availability.Schedule{}, fmt.Errorf("%w: %w", ErrScheduleMisconfigured, err)
	default:
		return availability.Schedule{}, fmt.Errorf("load schedule: %w", err)
	}
}

// ledger читает журнал дня через кэш. Для фиксации записи не используется.
func (s *Service) ledger(ctx context.Context, professionalID uuid.UUID, date civil.Date) ([]availability.Appointment, error) {
	cached, version, ok := s.ledgerCache.Get(ctx, professionalID, date)
	if ok {
		return cached, nil
	}
	entries, err := s.appointments.ListActive(ctx, professionalID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	// версия прочитана до запроса в БД: если между ними была фиксация, запись уйдёт в мёртвый ключ
	s.ledgerCache.Set(ctx, professionalID, date, version, entries)
	return entries, nil
}

// ListSlots возвращает свободные слоты специалиста на дату.
func (s *Service) ListSlots(ctx context.Context, professionalID uuid.UUID, date civil.Date) ([]availability.Slot, error) {
	if !date.IsValid() {
		return nil, fmt.Errorf("date %v: %w", date, ErrInvalidRequest)
	}
	sch, err := s.Schedule(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledger(ctx, professionalID, date)
	if err != nil {
		return nil, err
	}

	slots := availability.Available(sch, date, ledger, s.clock.Now())
	s.metrics.ObserveSlotsListed(len(slots))
	return slots, nil
}

// ListRange считает свободные слоты по дням на отрезке [from, to], не длиннее MaxRangeDays.
func (s *Service) ListRange(ctx context.Context, professionalID uuid.UUID, from, to civil.Date) ([]availability.DaySlots, error) {
	if !from.IsValid() || !to.IsValid() || to.Before(from) {
		return nil, fmt.Errorf("range %v..%v: %w", from, to, ErrInvalidRequest)
	}
	if to.DaysSince(from) >= MaxRangeDays {
		return nil, fmt.Errorf("range longer than %d days: %w", MaxRangeDays, ErrInvalidRequest)
	}

	sch, err := s.Schedule(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.appointments.ListActive(ctx, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return availability.AvailableRange(sch, from, to, ledger, s.clock.Now()), nil
}

func (s *Service) resolveDuration(ctx context.Context, req BookRequest, sch availability.Schedule) (int, error) {
	if req.DurationMinutes < 0 || req.DurationMinutes > availability.MinutesPerDay {
		return 0, fmt.Errorf("duration %d outside [0, %d]: %w", req.DurationMinutes, availability.MinutesPerDay, ErrInvalidRequest)
	}

	if req.ServiceID != nil {
		svc, err := s.services.GetByID(ctx, *req.ServiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, fmt.Errorf("service %s: %w", *req.ServiceID, ErrNotFound)
			}
			return 0, err
		}
		if !svc.IsActive {
			return 0, fmt.Errorf("service %s is inactive: %w", svc.ID, ErrInvalidRequest)
		}
		offered, err := s.professionals.OffersService(ctx, req.ProfessionalID, svc.ID)
		if err != nil {
			return 0, err
		}
		if !offered {
			return 0, fmt.Errorf("service %s is not offered by professional %s: %w", svc.ID, req.ProfessionalID, ErrInvalidRequest)
		}
		if req.DurationMinutes == 0 && svc.DefaultDurationMin != nil {
			return int(*svc.DefaultDurationMin), nil
		}
	}

	if req.DurationMinutes > 0 {
		return req.DurationMinutes, nil
	}
	return sch.SlotDuration, nil
}

func (s *Service) candidate(ctx context.Context, req BookRequest) (availability.Schedule, availability.Candidate, error) {
	if !req.Date.IsValid() {
		return availability.Schedule{}, availability.Candidate{}, fmt.Errorf("date %v: %w", req.Date, ErrInvalidRequest)
	}
	sch, err := s.Schedule(ctx, req.ProfessionalID)
	if err != nil {
		return availability.Schedule{}, availability.Candidate{}, err
	}
	dur, err := s.resolveDuration(ctx, req, sch)
	if err != nil {
		return availability.Schedule{}, availability.Candidate{}, err
	}
	return sch, availability.Candidate{Date: req.Date, StartTime: req.StartTime, DurationMinutes: dur}, nil
}

// Check делает пробную проверку без записи.
func (s *Service) Check(ctx context.Context, req BookRequest) (availability.Decision, error) {
	sch, c, err := s.candidate(ctx, req)
	if err != nil {
		return availability.Decision{}, err
	}
	ledger, err := s.ledger(ctx, req.ProfessionalID, req.Date)
	if err != nil {
		return availability.Decision{}, err
	}
	return availability.ValidateBooking(sch, ledger, s.clock.Now(), c), nil
}

// Book фиксирует запись. Проверка выполняется внутри транзакции по свежему
// журналу и по часам на момент фиксации.
func (s *Service) Book(ctx context.Context, req BookRequest) (*model.Appointment, availability.Decision, error) {
	sch, c, err := s.candidate(ctx, req)
	if err != nil {
		return nil, availability.Decision{}, err
	}

	appt := &model.Appointment{
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		ServiceID:      req.ServiceID,
		Date:           repository.DateValue(c.Date),
		StartMinute:    c.StartTime,
		DurationMin:    c.DurationMinutes,
		Status:         model.AppointmentStatusScheduled,
		Comment:        req.Comment,
	}

	started := time.Now()
	decision, err := s.appointments.Commit(ctx, appt, func(ledger []availability.Appointment) availability.Decision {
		return availability.ValidateBooking(sch, ledger, s.clock.Now(), c)
	})
	s.metrics.ObserveCommitLatency(time.Since(started).Seconds())

	if err != nil {
		s.metrics.ObserveBooking("error", "")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, availability.Decision{}, fmt.Errorf("professional %s: %w", req.ProfessionalID, ErrNotFound)
		}
		s.logger.Error("booking.commit_failed",
			zap.String("professional_id", req.ProfessionalID.String()),
			zap.Error(err),
		)
		return nil, availability.Decision{}, fmt.Errorf("commit appointment: %w", err)
	}

	if !decision.Accepted {
		s.metrics.ObserveBooking("rejected", string(decision.Reason))
		s.logger.Info("booking.rejected",
			zap.String("professional_id", req.ProfessionalID.String()),
			zap.String("slot", fmt.Sprintf("%s %s", c.Date, availability.FormatMinute(c.StartTime))),
			zap.String("reason", string(decision.Reason)),
		)
		return nil, decision, nil
	}

	s.ledgerCache.Invalidate(ctx, req.ProfessionalID, c.Date)
	s.metrics.ObserveBooking("accepted", "")
	s.logger.Info("booking.accepted",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("professional_id", req.ProfessionalID.String()),
		zap.String("slot", fmt.Sprintf("%s %s", c.Date, availability.FormatMinute(c.StartTime))),
		zap.Int("duration_min", c.DurationMinutes),
	)
	return appt, decision, nil
}

// Cancel отменяет запись и освобождает слот.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID, reason string) (*model.Appointment, error) {
	appt, err := s.appointments.Cancel(ctx, appointmentID, reason, s.clock.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("appointment %s: %w", appointmentID, ErrNotFound)
		}
		return nil, err
	}

	s.ledgerCache.Invalidate(ctx, appt.ProfessionalID, civil.DateOf(time.Time(appt.Date)))
	s.logger.Info("booking.cancelled",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("reason", reason),
	)
	return appt, nil
}

func (s *Service) Appointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return appt, nil
}

// Appointments отдаёт записи специалиста за период для кабинета бизнеса.
func (s *Service) Appointments(
	ctx context.Context,
	professionalID uuid.UUID,
	from, to civil.Date,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	if !from.IsValid() || !to.IsValid() || to.Before(from) {
		return nil, 0, fmt.Errorf("range %v..%v: %w", from, to, ErrInvalidRequest)
	}
	return s.appointments.ListByProfessional(ctx, professionalID, from, to, limit, offset)
}

func (s *Service) Professional(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	p, err := s.professionals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("professional %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ServicesOf(ctx context.Context, professionalID uuid.UUID) ([]model.Service, error) {
	return s.services.ListByProfessional(ctx, professionalID)
}

// Catalog отдаёт активные услуги бизнеса постранично.
func (s *Service) Catalog(ctx context.Context, limit, offset int) ([]model.Service, int64, error) {
	return s.services.List(ctx, true, limit, offset)
}

// SaveSchedule проверяет и сохраняет расписание. Некорректные настройки
// возвращаются как *availability.ConfigError и в базу не попадают.
func (s *Service) SaveSchedule(ctx context.Context, sch availability.Schedule) error {
	if err := sch.Validate(); err != nil {
		return err
	}
	if _, err := s.Professional(ctx, sch.ProfessionalID); err != nil {
		return err
	}

	row, err := repository.ScheduleFromDomain(sch)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	if err := s.schedules.Save(ctx, row); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}

	if s.scheduleCache != nil {
		s.scheduleCache.Invalidate(sch.ProfessionalID)
	}
	s.logger.Info("schedule.saved", zap.String("professional_id", sch.ProfessionalID.String()))
	return nil
}
