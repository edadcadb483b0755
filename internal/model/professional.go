package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Professional — специалист, к которому записываются клиенты (мастер, врач и т.п.).
// Привязан к базе пользователей через UserID.
type Professional struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	DisplayName string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Services []Service `gorm:"many2many:professional_services;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	// Удаление специалиста удаляет и расписание, и его производную доступность.
	Schedule     *Schedule     `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Appointments []Appointment `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p *Professional) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
