// Package dbtest поднимает SQLite в памяти со схемой сервиса для тестов.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appdb "github.com/Leganyst/appointment-availability/internal/db"
	"github.com/Leganyst/appointment-availability/internal/model"
)

// Open возвращает пустую базу со схемой. Одно соединение: у каждого
// нового соединения с :memory: своя база.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := appdb.Migrate(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// Fixture — специалист с пользователем, услугой и расписанием
// пн-пт 08:00–18:00 по 30 минут в UTC.
type Fixture struct {
	UserID         uuid.UUID
	ProfessionalID uuid.UUID
	ServiceID      uuid.UUID
	ScheduleID     uuid.UUID
}

func Seed(t testing.TB, db *gorm.DB) Fixture {
	t.Helper()

	f := Fixture{
		UserID:         uuid.New(),
		ProfessionalID: uuid.New(),
		ServiceID:      uuid.New(),
		ScheduleID:     uuid.New(),
	}
	duration := int64(60)

	rows := []any{
		&model.User{ID: f.UserID, Email: f.UserID.String() + "@example.com", DisplayName: "Анна"},
		&model.Professional{ID: f.ProfessionalID, UserID: f.UserID, DisplayName: "Анна, мастер маникюра"},
		&model.Service{ID: f.ServiceID, Name: "Маникюр", DefaultDurationMin: &duration, IsActive: true},
		&model.ProfessionalService{ProfessionalID: f.ProfessionalID, ServiceID: f.ServiceID},
		&model.Schedule{
			ID:                 f.ScheduleID,
			ProfessionalID:     f.ProfessionalID,
			WorkingDays:        datatypes.JSON(`[1,2,3,4,5]`),
			StartMinute:        480,
			EndMinute:          1080,
			SlotDurationMin:    30,
			AdvanceBookingDays: 30,
			IsActive:           true,
			TimeZone:           "UTC",
		},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
	return f
}

// Clock: понедельник 6 января 2025, 07:00 UTC.
var Clock = time.Date(2025, time.January, 6, 7, 0, 0, 0, time.UTC)
