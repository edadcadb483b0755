package calendar

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Ошибки проверки прав.
var (
	ErrUnauthenticated = errors.New("actor is not identified")
	ErrForbidden       = errors.New("actor lacks capability")
)

// Роль пользователя в системе.
type Role string

const (
	RoleSaaSAdmin    Role = "SAAS_ADMIN"
	RoleMaster       Role = "MASTER"
	RoleProfessional Role = "PROFESSIONAL"
	RoleClient       Role = "CLIENT"
)

// Capability — действие над ресурсами специалиста.
type Capability string

const (
	CapManageSchedule    Capability = "manage_schedule"
	CapViewAppointments  Capability = "view_appointments"
	CapCancelAppointment Capability = "cancel_appointment"
)

// Subject — чьё это: пользователь-владелец профиля специалиста
// и, для записи, клиент.
type Subject struct {
	OwnerUserID uuid.UUID
	ClientID    *uuid.UUID
}

// RoleStore отдаёт код роли. Пустая строка без ошибки означает, что роли нет.
// В реале это обёртка над БД, в тестах мок.
type RoleStore interface {
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}

// Authorize проверяет права в вызывающем слое, ядро о ролях не знает:
//   - SAAS_ADMIN и MASTER могут всё;
//   - PROFESSIONAL может действовать только над своим профилем;
//   - клиент может отменить только свою запись.
func Authorize(
	ctx context.Context,
	store RoleStore,
	actorID uuid.UUID,
	capability Capability,
	subject Subject,
) error {
	if actorID == uuid.Nil {
		return ErrUnauthenticated
	}

	code, err := store.GetRole(ctx, actorID)
	if err != nil {
		return err
	}

	switch Role(code) {
	case RoleSaaSAdmin, RoleMaster:
		return nil
	case RoleProfessional:
		if subject.OwnerUserID == actorID {
			return nil
		}
	}

	if capability == CapCancelAppointment && subject.ClientID != nil && *subject.ClientID == actorID {
		return nil
	}
	return ErrForbidden
}
