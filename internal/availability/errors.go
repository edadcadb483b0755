package availability

import (
	"errors"
	"fmt"
)

// ErrInvalidSchedule оборачивается каждой ошибкой конфигурации расписания.
// Проверяется через errors.Is на любой *ConfigError.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

// ConfigError описывает конкретное нарушение в настройках расписания.
// Это ошибка данных администратора, а не отказ клиенту.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid schedule configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidSchedule
}

func configErr(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
