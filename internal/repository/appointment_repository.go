package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/model"
)

var ErrAlreadyCancelled = errors.New("appointment already cancelled")

// CheckFunc повторно проверяет кандидата по журналу, прочитанному внутри транзакции.
type CheckFunc func(ledger []availability.Appointment) availability.Decision

type AppointmentRepository interface {
	// Активные (не отменённые) записи специалиста за период [from, to].
	ListActive(ctx context.Context, professionalID uuid.UUID, from, to civil.Date) ([]availability.Appointment, error)
	// Commit сохраняет запись, только если check внутри транзакции вернул Accepted.
	// Проигравший гонку писатель получает Rejected(DOUBLE_BOOKED), а не ошибку.
	Commit(ctx context.Context, appt *model.Appointment, check CheckFunc) (availability.Decision, error)
	// Отмена записи.
	Cancel(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*model.Appointment, error)
	// Получить запись по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Записи специалиста за период с пагинацией (для кабинета бизнеса).
	ListByProfessional(
		ctx context.Context,
		professionalID uuid.UUID,
		from, to civil.Date,
		limit, offset int,
	) ([]model.Appointment, int64, error)
}

// Реализация на GORM.
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// DateValue переводит календарный день в значение колонки date.
func DateValue(d civil.Date) datatypes.Date {
	return datatypes.Date(d.In(time.UTC))
}

func (r *GormAppointmentRepository) ListActive(
	ctx context.Context,
	professionalID uuid.UUID,
	from, to civil.Date,
) ([]availability.Appointment, error) {
	rows, err := activeLedger(r.db.WithContext(ctx), professionalID, from, to)
	if err != nil {
		return nil, err
	}
	return appointmentsToDomain(rows), nil
}

func activeLedger(tx *gorm.DB, professionalID uuid.UUID, from, to civil.Date) ([]model.Appointment, error) {
	var rows []model.Appointment
	err := tx.
		Where("professional_id = ?", professionalID).
		Where("date >= ? AND date <= ?", DateValue(from), DateValue(to)).
		Where("status <> ?", model.AppointmentStatusCancelled).
		Order("date ASC, start_minute ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormAppointmentRepository) Commit(
	ctx context.Context,
	appt *model.Appointment,
	check CheckFunc,
) (availability.Decision, error) {
	var decision availability.Decision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Сериализуем писателей одного специалиста.
		if err := lockProfessional(tx, appt.ProfessionalID); err != nil {
			return err
		}

		day := civil.DateOf(time.Time(appt.Date))
		rows, err := activeLedger(tx, appt.ProfessionalID, day, day)
		if err != nil {
			return err
		}

		decision = check(appointmentsToDomain(rows))
		profID := appt.ProfessionalID
		if !decision.Accepted {
			return tx.Create(&model.Event{
				EventType:      model.EventTypeBookingRejected,
				ProfessionalID: &profID,
				Details: fmt.Sprintf("%s %s: %s",
					day, availability.FormatMinute(appt.StartMinute), decision.Reason),
			}).Error
		}

		if appt.Status == "" {
			appt.Status = model.AppointmentStatusScheduled
		}
		if err := tx.Create(appt).Error; err != nil {
			return err
		}

		apptID := appt.ID
		return tx.Create(&model.Event{
			EventType:      model.EventTypeAppointmentCreated,
			ProfessionalID: &profID,
			AppointmentID:  &apptID,
			Details: fmt.Sprintf("%s %s, %d min",
				day, availability.FormatMinute(appt.StartMinute), appt.DurationMin),
		}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return availability.Reject(availability.ReasonDoubleBooked), nil
		}
		return availability.Decision{}, err
	}
	return decision, nil
}

func lockProfessional(tx *gorm.DB, professionalID uuid.UUID) error {
	q := tx.Model(&model.Professional{}).Select("id")
	// SQLite блокирует всю базу на запись, построчных блокировок там нет.
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p model.Professional
	return q.First(&p, "id = ?", professionalID).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func (r *GormAppointmentRepository) Cancel(
	ctx context.Context,
	id uuid.UUID,
	reason string,
	at time.Time,
) (*model.Appointment, error) {
	var a model.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		if a.Status == model.AppointmentStatusCancelled {
			return ErrAlreadyCancelled
		}

		cancelledAt := at.UTC()
		update := map[string]any{
			"status":       model.AppointmentStatusCancelled,
			"cancelled_at": cancelledAt,
		}
		if reason != "" {
			update["comment"] = reason
		}
		if err := tx.Model(&model.Appointment{}).Where("id = ?", id).Updates(update).Error; err != nil {
			return err
		}
		a.Status = model.AppointmentStatusCancelled
		a.CancelledAt = &cancelledAt
		if reason != "" {
			a.Comment = reason
		}

		profID := a.ProfessionalID
		return tx.Create(&model.Event{
			EventType:      model.EventTypeAppointmentCancelled,
			ProfessionalID: &profID,
			AppointmentID:  &id,
			Details:        reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) ListByProfessional(
	ctx context.Context,
	professionalID uuid.UUID,
	from, to civil.Date,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	var (
		appts []model.Appointment
		total int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("professional_id = ?", professionalID).
		Where("date >= ? AND date <= ?", DateValue(from), DateValue(to))

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("date ASC, start_minute ASC").Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}
