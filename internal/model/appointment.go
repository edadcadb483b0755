package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// appointments — журнал записей.
//
// Частичный уникальный индекс не даёт двум активным записям занять одно и то же
// начало у одного специалиста, даже если проверка в транзакции проиграла гонку.
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ProfessionalID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index"`
	ServiceID      *uuid.UUID `gorm:"type:uuid;index"`

	// Календарный день в поясе бизнеса.
	Date        datatypes.Date `gorm:"type:date;not null;index;uniqueIndex:idx_appointments_active_slot"`
	StartMinute int            `gorm:"not null;uniqueIndex:idx_appointments_active_slot"`
	DurationMin int            `gorm:"not null"`

	Status      AppointmentStatus `gorm:"type:varchar(32);not null;default:'scheduled';index"`
	CancelledAt *time.Time        `gorm:"type:timestamp with time zone"`
	Comment     string            `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Professional *Professional `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Client       *User         `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Service      *Service      `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// BeforeCreate проставляет ID на стороне приложения, чтобы не зависеть
// от gen_random_uuid() (его нет в SQLite).
func (a *Appointment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
