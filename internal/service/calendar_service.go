package service

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/booking"
	"github.com/Leganyst/appointment-availability/internal/calendar"
	"github.com/Leganyst/appointment-availability/internal/model"
)

// BookingService описывает то, что нужно RPC от прикладного слоя.
type BookingService interface {
	Schedule(ctx context.Context, professionalID uuid.UUID) (availability.Schedule, error)
	ListSlots(ctx context.Context, professionalID uuid.UUID, date civil.Date) ([]availability.Slot, error)
	ListRange(ctx context.Context, professionalID uuid.UUID, from, to civil.Date) ([]availability.DaySlots, error)
	Check(ctx context.Context, req booking.BookRequest) (availability.Decision, error)
	Book(ctx context.Context, req booking.BookRequest) (*model.Appointment, availability.Decision, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID, reason string) (*model.Appointment, error)
	Appointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Professional(ctx context.Context, id uuid.UUID) (*model.Professional, error)
}

// MetadataActorID — ключ метаданных с идентификатором действующего пользователя.
const MetadataActorID = "x-actor-id"

type CalendarService struct {
	booking BookingService
	roles   calendar.RoleStore
	logger  *zap.Logger
}

func NewCalendarService(b BookingService, roles calendar.RoleStore, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{booking: b, roles: roles, logger: logger}
}

// ListFreeSlots.
// Запрос: professional_id, date (YYYY-MM-DD) или from+to, page, page_size.
// Ответ: slots[{date, start, end, starts_at, ends_at, label}], total_count, page, page_size, has_next.
func (s *CalendarService) ListFreeSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	profID, err := uuidField(req, "professional_id", true)
	if err != nil {
		return nil, err
	}

	var slots []availability.Slot
	if req.GetFields()["date"] != nil {
		date, err := dateField(req, "date")
		if err != nil {
			return nil, err
		}
		slots, err = s.booking.ListSlots(ctx, *profID, date)
		if err != nil {
			return nil, s.toStatus(err)
		}
	} else {
		from, err := dateField(req, "from")
		if err != nil {
			return nil, err
		}
		to, err := dateField(req, "to")
		if err != nil {
			return nil, err
		}
		days, err := s.booking.ListRange(ctx, *profID, from, to)
		if err != nil {
			return nil, s.toStatus(err)
		}
		for _, d := range days {
			slots = append(slots, d.Slots...)
		}
	}

	sch, err := s.booking.Schedule(ctx, *profID)
	if err != nil {
		return nil, s.toStatus(err)
	}

	p := calendar.Paginate(slots, intField(req, "page"), intField(req, "page_size"))

	items := make([]any, 0, len(p.Items))
	for _, sl := range p.Items {
		items = append(items, map[string]any{
			"date":      sl.Date.String(),
			"start":     availability.FormatMinute(sl.StartTime),
			"end":       availability.FormatMinute(sl.EndTime),
			"starts_at": sl.StartsAt(sch.Location).Format(time.RFC3339),
			"ends_at":   sl.EndsAt(sch.Location).Format(time.RFC3339),
			"label":     sl.Label(),
		})
	}

	return newStruct(map[string]any{
		"slots":       items,
		"total_count": p.Total,
		"page":        p.Page,
		"page_size":   p.PageSize,
		"has_next":    p.HasNext,
	})
}

// CheckBooking.
// Запрос: professional_id, date, start (HH:MM), duration_min, service_id.
// Ответ: accepted, reason.
func (s *CalendarService) CheckBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	br, err := bookRequestFrom(req)
	if err != nil {
		return nil, err
	}
	d, err := s.booking.Check(ctx, br)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return newStruct(decisionFields(d))
}

// CreateBooking.
// Запрос: как у CheckBooking плюс client_id и comment.
// Ответ: accepted, reason, appointment_id (при успехе).
// Отказ приходит обычным ответом с accepted=false, а не ошибкой RPC.
func (s *CalendarService) CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	br, err := bookRequestFrom(req)
	if err != nil {
		return nil, err
	}
	appt, d, err := s.booking.Book(ctx, br)
	if err != nil {
		return nil, s.toStatus(err)
	}

	fields := decisionFields(d)
	if appt != nil {
		fields["appointment_id"] = appt.ID.String()
	}
	return newStruct(fields)
}

// CancelBooking.
// Запрос: appointment_id, reason. Ответ: appointment_id, status.
// Актёр берётся из метаданных x-actor-id; отменить может клиент записи,
// владелец профиля специалиста или администратор.
func (s *CalendarService) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuidField(req, "appointment_id", true)
	if err != nil {
		return nil, err
	}

	existing, err := s.booking.Appointment(ctx, *id)
	if err != nil {
		return nil, s.toStatus(err)
	}
	prof, err := s.booking.Professional(ctx, existing.ProfessionalID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	if err := s.authorize(ctx, actor, calendar.CapCancelAppointment, calendar.Subject{
		OwnerUserID: prof.UserID,
		ClientID:    existing.ClientID,
	}); err != nil {
		return nil, err
	}

	appt, err := s.booking.Cancel(ctx, *id, stringField(req, "reason"))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return newStruct(map[string]any{
		"appointment_id": appt.ID.String(),
		"status":         string(appt.Status),
	})
}

// actorFromContext читает x-actor-id из входящих метаданных.
// Отсутствие ключа даёт uuid.Nil: решение принимает calendar.Authorize.
func actorFromContext(ctx context.Context) (uuid.UUID, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return uuid.Nil, nil
	}
	vals := md.Get(MetadataActorID)
	if len(vals) == 0 || vals[0] == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(vals[0])
	if err != nil {
		return uuid.Nil, status.Errorf(codes.Unauthenticated, "%s must be a UUID", MetadataActorID)
	}
	return id, nil
}

func (s *CalendarService) authorize(ctx context.Context, actor uuid.UUID, capability calendar.Capability, subject calendar.Subject) error {
	if s.roles == nil {
		s.logger.Error("grpc.authorize_without_roles", zap.String("capability", string(capability)))
		return status.Error(codes.PermissionDenied, "access checks are not configured")
	}
	err := calendar.Authorize(ctx, s.roles, actor, capability, subject)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, calendar.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, calendar.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return s.toStatus(err)
	}
}

func decisionFields(d availability.Decision) map[string]any {
	return map[string]any{
		"accepted": d.Accepted,
		"reason":   string(d.Reason),
	}
}

func bookRequestFrom(req *structpb.Struct) (booking.BookRequest, error) {
	profID, err := uuidField(req, "professional_id", true)
	if err != nil {
		return booking.BookRequest{}, err
	}
	date, err := dateField(req, "date")
	if err != nil {
		return booking.BookRequest{}, err
	}
	start, err := availability.ParseMinute(stringField(req, "start"))
	if err != nil {
		return booking.BookRequest{}, status.Error(codes.InvalidArgument, "start must be HH:MM")
	}
	serviceID, err := uuidField(req, "service_id", false)
	if err != nil {
		return booking.BookRequest{}, err
	}
	clientID, err := uuidField(req, "client_id", false)
	if err != nil {
		return booking.BookRequest{}, err
	}

	return booking.BookRequest{
		ProfessionalID:  *profID,
		ServiceID:       serviceID,
		ClientID:        clientID,
		Date:            date,
		StartTime:       start,
		DurationMinutes: intField(req, "duration_min"),
		Comment:         stringField(req, "comment"),
	}, nil
}

// toStatus переводит ошибки прикладного слоя в коды gRPC.
func (s *CalendarService) toStatus(err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, booking.ErrScheduleMisconfigured):
		// подробности только в логах администратора
		return status.Error(codes.FailedPrecondition, "schedule is temporarily unavailable")
	case errors.Is(err, booking.ErrInvalidRequest), errors.Is(err, availability.ErrInvalidSchedule):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, booking.ErrAlreadyCancelled):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		s.logger.Error("grpc.internal_error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
