package db

import (
	"path/filepath"
	"testing"

	"github.com/Leganyst/appointment-availability/internal/config"
	"github.com/Leganyst/appointment-availability/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.DBConfig{
		Host: "db", User: "u", Password: "p", Name: "n", Port: 5433, SSLMode: "disable", TimeZone: "UTC",
	})
	want := "host=db user=u password=p dbname=n port=5433 sslmode=disable TimeZone=UTC"
	if dsn != want {
		t.Fatalf("expected %q, got %q", want, dsn)
	}
}

func TestNewGormDB_SQLiteMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.db")
	db, err := NewGormDB(&config.DBConfig{Driver: "sqlite", SQLitePath: path, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("NewGormDB: %v", err)
	}
	if db.Dialector.Name() != "sqlite" {
		t.Fatalf("unexpected dialector %s", db.Dialector.Name())
	}

	// дважды: DDL идемпотентен
	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate: %v", err)
		}
	}
	for _, table := range []string{"professionals", "schedules", "appointments", "events"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table %s not created", table)
		}
	}
	if !db.Migrator().HasIndex(&model.Appointment{}, "idx_appointments_active_slot") {
		t.Fatalf("partial unique index not created")
	}
}

func TestNewGormDB_UnknownDriver(t *testing.T) {
	if _, err := NewGormDB(&config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
