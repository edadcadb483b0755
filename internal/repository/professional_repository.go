package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-availability/internal/model"
)

type ProfessionalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	// OffersService сообщает, оказывает ли специалист услугу.
	OffersService(ctx context.Context, professionalID, serviceID uuid.UUID) (bool, error)
}

type GormProfessionalRepository struct {
	db *gorm.DB
}

func NewGormProfessionalRepository(db *gorm.DB) *GormProfessionalRepository {
	return &GormProfessionalRepository{db: db}
}

func (r *GormProfessionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	var p model.Professional
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProfessionalRepository) OffersService(ctx context.Context, professionalID, serviceID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ProfessionalService{}).
		Where("professional_id = ? AND service_id = ?", professionalID, serviceID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
