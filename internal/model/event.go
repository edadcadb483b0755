package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeAppointmentCreated   EventType = "appointment_created"
	EventTypeAppointmentCancelled EventType = "appointment_cancelled"
	EventTypeBookingRejected      EventType = "booking_rejected"
	EventTypeScheduleUpdated      EventType = "schedule_updated"
)

// events — события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	ProfessionalID *uuid.UUID `gorm:"type:uuid;index"`
	AppointmentID  *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`

	Professional *Professional `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Appointment  *Appointment  `gorm:"foreignKey:AppointmentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
