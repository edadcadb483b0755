package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/model"
)

type ScheduleRepository interface {
	// LoadSchedule возвращает проверенное расписание специалиста.
	// Некорректные настройки дают *availability.ConfigError.
	LoadSchedule(ctx context.Context, professionalID uuid.UUID) (availability.Schedule, error)
	// GetByProfessional возвращает сырую строку schedules.
	GetByProfessional(ctx context.Context, professionalID uuid.UUID) (*model.Schedule, error)
	// Save создаёт или заменяет расписание специалиста.
	Save(ctx context.Context, schedule *model.Schedule) error
}

type GormScheduleRepository struct {
	db         *gorm.DB
	defaultLoc *time.Location
}

func NewGormScheduleRepository(db *gorm.DB, defaultLoc *time.Location) *GormScheduleRepository {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &GormScheduleRepository{db: db, defaultLoc: defaultLoc}
}

func (r *GormScheduleRepository) GetByProfessional(ctx context.Context, professionalID uuid.UUID) (*model.Schedule, error) {
	var s model.Schedule
	if err := r.db.WithContext(ctx).First(&s, "professional_id = ?", professionalID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormScheduleRepository) LoadSchedule(ctx context.Context, professionalID uuid.UUID) (availability.Schedule, error) {
	row, err := r.GetByProfessional(ctx, professionalID)
	if err != nil {
		return availability.Schedule{}, err
	}
	s, err := ScheduleToDomain(row, r.defaultLoc)
	if err != nil {
		return availability.Schedule{}, fmt.Errorf("schedule %s: %w", row.ID, err)
	}
	return s, nil
}

func (r *GormScheduleRepository) Save(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Schedule
		err := tx.Select("id", "created_at").
			First(&existing, "professional_id = ?", schedule.ProfessionalID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(schedule).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			schedule.ID = existing.ID
			schedule.CreatedAt = existing.CreatedAt
			if err := tx.Save(schedule).Error; err != nil {
				return err
			}
		}

		profID := schedule.ProfessionalID
		return tx.Create(&model.Event{
			EventType:      model.EventTypeScheduleUpdated,
			ProfessionalID: &profID,
			Details:        fmt.Sprintf("schedule %s saved", schedule.ID),
		}).Error
	})
}
