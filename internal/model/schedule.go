package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// schedules — недельный шаблон доступности, по одному на специалиста.
// Времена суток хранятся в минутах (480 = 08:00).
type Schedule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ProfessionalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	// Дни недели 0..6 (0 — воскресенье), JSON-массив: [1,2,3,4,5].
	WorkingDays datatypes.JSON `gorm:"type:jsonb;not null"`

	StartMinute     int `gorm:"not null"`
	EndMinute       int `gorm:"not null"`
	SlotDurationMin int `gorm:"not null"`
	BufferMin       int `gorm:"not null"`

	// Обед: либо оба поля заданы, либо оба nil.
	LunchStartMin *int
	LunchEndMin   *int

	// 0 допустим: запись только на сегодня, без минимального уведомления.
	AdvanceBookingDays int `gorm:"not null"`
	MinNoticeHours     int `gorm:"not null"`

	IsActive bool `gorm:"not null"`

	// IANA-идентификатор. Пусто — используется пояс бизнеса из конфигурации.
	TimeZone string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Professional *Professional `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *Schedule) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
