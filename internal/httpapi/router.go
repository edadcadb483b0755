// Package httpapi содержит REST-обёртку над booking.Service на gin.
package httpapi

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/booking"
	"github.com/Leganyst/appointment-availability/internal/calendar"
	"github.com/Leganyst/appointment-availability/internal/model"
)

// Booking перечисляет методы booking.Service, которые нужны HTTP-слою.
type Booking interface {
	Schedule(ctx context.Context, professionalID uuid.UUID) (availability.Schedule, error)
	ListSlots(ctx context.Context, professionalID uuid.UUID, date civil.Date) ([]availability.Slot, error)
	ListRange(ctx context.Context, professionalID uuid.UUID, from, to civil.Date) ([]availability.DaySlots, error)
	Check(ctx context.Context, req booking.BookRequest) (availability.Decision, error)
	Book(ctx context.Context, req booking.BookRequest) (*model.Appointment, availability.Decision, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID, reason string) (*model.Appointment, error)
	Appointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Appointments(ctx context.Context, professionalID uuid.UUID, from, to civil.Date, limit, offset int) ([]model.Appointment, int64, error)
	Professional(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	ServicesOf(ctx context.Context, professionalID uuid.UUID) ([]model.Service, error)
	Catalog(ctx context.Context, limit, offset int) ([]model.Service, int64, error)
	SaveSchedule(ctx context.Context, sch availability.Schedule) error
}

type Deps struct {
	Booking Booking
	Roles   calendar.RoleStore
	Logger  *zap.Logger

	// Пояс для расписаний, сохранённых без time_zone.
	DefaultLocation *time.Location

	// Необязательные.
	Gatherer prometheus.Gatherer
	Ready    func(ctx context.Context) error
}

type Handler struct {
	booking    Booking
	roles      calendar.RoleStore
	logger     *zap.Logger
	defaultLoc *time.Location
	ready      func(ctx context.Context) error
}

// NewRouter собирает gin.Engine со всеми маршрутами.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := d.DefaultLocation
	if loc == nil {
		loc = time.UTC
	}

	h := &Handler{
		booking:    d.Booking,
		roles:      d.Roles,
		logger:     logger,
		defaultLoc: loc,
		ready:      d.Ready,
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(logger), recovery(logger))

	r.GET("/healthz", h.health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/services", h.listServices)
		api.GET("/professionals/:id", h.getProfessional)
		api.GET("/professionals/:id/slots", h.listSlots)
		api.GET("/professionals/:id/availability", h.listAvailability)
		api.GET("/professionals/:id/appointments", h.listAppointments)
		api.PUT("/professionals/:id/schedule", h.saveSchedule)

		api.POST("/appointments/check", h.checkBooking)
		api.POST("/appointments", h.createBooking)
		api.GET("/appointments/:id", h.getAppointment)
		api.POST("/appointments/:id/cancel", h.cancelBooking)
	}
	return r
}

func (h *Handler) health(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(c.Request.Context()); err != nil {
			h.logger.Warn("health.not_ready", zap.Error(err))
			c.JSON(503, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(200, gin.H{"status": "ok"})
}
