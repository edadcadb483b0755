package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Leganyst/appointment-availability/internal/model"
)

// sqliteSchema повторяет модели из internal/model. AutoMigrate на SQLite не подходит:
// там нет gen_random_uuid() и now() в DEFAULT.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE,
		display_name TEXT,
		contact_phone TEXT,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		role_id INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		PRIMARY KEY (role_id, user_id)
	);`,
	`CREATE TABLE IF NOT EXISTS professionals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		default_duration_min INTEGER,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS professional_services (
		professional_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		PRIMARY KEY (professional_id, service_id)
	);`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		professional_id TEXT NOT NULL UNIQUE,
		working_days TEXT NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL,
		slot_duration_min INTEGER NOT NULL,
		buffer_min INTEGER NOT NULL DEFAULT 0,
		lunch_start_min INTEGER,
		lunch_end_min INTEGER,
		advance_booking_days INTEGER NOT NULL DEFAULT 30,
		min_notice_hours INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		time_zone TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		professional_id TEXT NOT NULL,
		client_id TEXT,
		service_id TEXT,
		date DATE NOT NULL,
		start_minute INTEGER NOT NULL,
		duration_min INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		cancelled_at DATETIME,
		comment TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_slot
		ON appointments (professional_id, date, start_minute)
		WHERE status <> 'cancelled';`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		created_at DATETIME,
		professional_id TEXT,
		appointment_id TEXT,
		details TEXT
	);`,
}

// Migrate приводит схему к моделям: AutoMigrate на PostgreSQL, готовый DDL на SQLite.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() != "sqlite" {
		return model.AutoMigrate(db)
	}
	for _, stmt := range sqliteSchema {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}
