package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	HTTP  HTTPConfig
	GRPC  GRPCConfig
	Redis RedisConfig
	Cache CacheConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	// Пояс бизнеса по умолчанию для расписаний без своего time_zone.
	TimeZone    string
	AutoMigrate bool
}

type DBConfig struct {
	Driver          string // postgres | sqlite
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type GRPCConfig struct {
	Addr       string
	Reflection bool
}

// При пустом Addr кэш журнала выключен.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	LedgerTTL    time.Duration
	ScheduleSize int
	ScheduleTTL  time.Duration
}

// Load читает конфигурацию из окружения и необязательного .env.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "Europe/Moscow")
	v.SetDefault("AUTO_MIGRATE", false)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "postgres")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "booking")
	v.SetDefault("DB_PASSWORD", "booking")
	v.SetDefault("DB_NAME", "booking_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_SQLITE_PATH", "availability.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MIN", 30)

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("GRPC_REFLECTION", true)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LEDGER_CACHE_TTL", "30s")
	v.SetDefault("SCHEDULE_CACHE_SIZE", 1024)
	v.SetDefault("SCHEDULE_CACHE_TTL", "5m")

	// .env не обязателен
	_ = v.ReadInConfig()

	cfg := &Config{
		App: AppConfig{
			Env:         v.GetString("APP_ENV"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			TimeZone:    v.GetString("APP_TIMEZONE"),
			AutoMigrate: v.GetBool("AUTO_MIGRATE"),
		},
		DB: DBConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			TimeZone:        v.GetString("DB_TIMEZONE"),
			SQLitePath:      v.GetString("DB_SQLITE_PATH"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifeTime: v.GetInt("DB_CONN_MAX_LIFETIME_MIN"),
		},
		HTTP: HTTPConfig{
			Addr:            v.GetString("HTTP_ADDR"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		GRPC: GRPCConfig{
			Addr:       v.GetString("GRPC_ADDR"),
			Reflection: v.GetBool("GRPC_REFLECTION"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			LedgerTTL:    v.GetDuration("LEDGER_CACHE_TTL"),
			ScheduleSize: v.GetInt("SCHEDULE_CACHE_SIZE"),
			ScheduleTTL:  v.GetDuration("SCHEDULE_CACHE_TTL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет конфиг, чтобы падать на старте, а не на первом запросе.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres":
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return fmt.Errorf("invalid DB config: DB_SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("invalid DB config: unknown driver %q", c.DB.Driver)
	}

	if _, err := c.App.Location(); err != nil {
		return err
	}
	if c.Cache.ScheduleSize <= 0 {
		return fmt.Errorf("SCHEDULE_CACHE_SIZE must be positive, got %d", c.Cache.ScheduleSize)
	}
	return nil
}

// Location возвращает пояс бизнеса по умолчанию.
func (a AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", a.TimeZone, err)
	}
	return loc, nil
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}
