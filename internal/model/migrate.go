package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей сервиса доступности.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Role{},
		&UserRole{},
		&Professional{},
		&Service{},
		&ProfessionalService{},
		&Schedule{},
		&Appointment{},
		&Event{},
	)
}
