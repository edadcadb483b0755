package httpapi

import (
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/booking"
	"github.com/Leganyst/appointment-availability/internal/calendar"
	"github.com/Leganyst/appointment-availability/internal/model"
)

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id format")
		return uuid.Nil, false
	}
	return id, true
}

func queryDate(c *gin.Context, name string) (civil.Date, bool) {
	d, err := civil.ParseDate(c.Query(name))
	if err != nil {
		badRequest(c, name+" must be YYYY-MM-DD")
		return civil.Date{}, false
	}
	return d, true
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// authorize проверяет право актёра на ресурсы специалиста.
func (h *Handler) authorize(c *gin.Context, professionalID uuid.UUID, capability calendar.Capability, clientID *uuid.UUID) bool {
	ctx := c.Request.Context()
	p, err := h.booking.Professional(ctx, professionalID)
	if err != nil {
		h.fail(c, err)
		return false
	}
	subject := calendar.Subject{OwnerUserID: p.UserID, ClientID: clientID}
	if err := calendar.Authorize(ctx, h.roles, actorID(c), capability, subject); err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

// GET /api/v1/services?page=&page_size=
func (h *Handler) listServices(c *gin.Context) {
	page := queryInt(c, "page", 1)
	size := queryInt(c, "page_size", calendar.DefaultPageSize)
	if size > calendar.MaxPageSize {
		size = calendar.MaxPageSize
	}

	rows, total, err := h.booking.Catalog(c.Request.Context(), size, (page-1)*size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pageDTO[serviceDTO]{Items: toServiceDTOs(rows), Total: total, Page: page, PageSize: size})
}

// GET /api/v1/professionals/:id, карточка специалиста с услугами.
func (h *Handler) getProfessional(c *gin.Context) {
	profID, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := h.booking.Professional(ctx, profID)
	if err != nil {
		h.fail(c, err)
		return
	}
	services, err := h.booking.ServicesOf(ctx, profID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           p.ID,
		"display_name": p.DisplayName,
		"description":  p.Description,
		"services":     toServiceDTOs(services),
	})
}

// GET /api/v1/professionals/:id/slots?date=YYYY-MM-DD
func (h *Handler) listSlots(c *gin.Context) {
	profID, ok := pathID(c)
	if !ok {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	slots, err := h.booking.ListSlots(ctx, profID, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	sch, err := h.booking.Schedule(ctx, profID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"professional_id": profID,
		"date":            date.String(),
		"time_zone":       sch.Location.String(),
		"slots":           toSlotDTOs(slots, sch.Location),
	})
}

// GET /api/v1/professionals/:id/availability?from=&to=
func (h *Handler) listAvailability(c *gin.Context) {
	profID, ok := pathID(c)
	if !ok {
		return
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	days, err := h.booking.ListRange(ctx, profID, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	sch, err := h.booking.Schedule(ctx, profID)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]daySlotsDTO, 0, len(days))
	for _, d := range days {
		out = append(out, daySlotsDTO{Date: d.Date.String(), Slots: toSlotDTOs(d.Slots, sch.Location)})
	}
	c.JSON(http.StatusOK, gin.H{
		"professional_id": profID,
		"time_zone":       sch.Location.String(),
		"days":            out,
	})
}

// GET /api/v1/professionals/:id/appointments?from=&to=&page=&page_size=
func (h *Handler) listAppointments(c *gin.Context) {
	profID, ok := pathID(c)
	if !ok {
		return
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	if !h.authorize(c, profID, calendar.CapViewAppointments, nil) {
		return
	}

	page := queryInt(c, "page", 1)
	size := queryInt(c, "page_size", calendar.DefaultPageSize)
	if size > calendar.MaxPageSize {
		size = calendar.MaxPageSize
	}

	rows, total, err := h.booking.Appointments(c.Request.Context(), profID, from, to, size, (page-1)*size)
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]appointmentDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toAppointmentDTO(&rows[i]))
	}
	c.JSON(http.StatusOK, pageDTO[appointmentDTO]{Items: items, Total: total, Page: page, PageSize: size})
}

// PUT /api/v1/professionals/:id/schedule
func (h *Handler) saveSchedule(c *gin.Context) {
	profID, ok := pathID(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !h.authorize(c, profID, calendar.CapManageSchedule, nil) {
		return
	}

	sch, err := req.toSchedule(profID, h.defaultLoc)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.booking.SaveSchedule(c.Request.Context(), sch); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("http.schedule_saved",
		zap.String("professional_id", profID.String()),
		zap.String("actor_id", actorID(c).String()),
	)
	c.JSON(http.StatusOK, gin.H{"professional_id": profID, "time_zone": sch.Location.String()})
}

func (h *Handler) bindBooking(c *gin.Context) (booking.BookRequest, bool) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return booking.BookRequest{}, false
	}
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return booking.BookRequest{}, false
	}
	start, err := availability.ParseMinute(req.Start)
	if err != nil {
		badRequest(c, "start must be HH:MM")
		return booking.BookRequest{}, false
	}
	return booking.BookRequest{
		ProfessionalID:  req.ProfessionalID,
		ServiceID:       req.ServiceID,
		ClientID:        req.ClientID,
		Date:            date,
		StartTime:       start,
		DurationMinutes: req.DurationMin,
		Comment:         req.Comment,
	}, true
}

// POST /api/v1/appointments/check, ничего не пишет.
func (h *Handler) checkBooking(c *gin.Context) {
	req, ok := h.bindBooking(c)
	if !ok {
		return
	}
	d, err := h.booking.Check(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decisionDTO{Accepted: d.Accepted, Reason: string(d.Reason)})
}

// POST /api/v1/appointments
func (h *Handler) createBooking(c *gin.Context) {
	req, ok := h.bindBooking(c)
	if !ok {
		return
	}
	appt, d, err := h.booking.Book(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !d.Accepted {
		c.JSON(rejectionStatus(d.Reason), decisionDTO{Accepted: false, Reason: string(d.Reason)})
		return
	}

	dto := toAppointmentDTO(appt)
	c.JSON(http.StatusCreated, decisionDTO{Accepted: true, Appointment: &dto})
}

// GET /api/v1/appointments/:id
func (h *Handler) getAppointment(c *gin.Context) {
	appt, ok := h.loadAppointment(c, calendar.CapViewAppointments)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toAppointmentDTO(appt))
}

// POST /api/v1/appointments/:id/cancel
func (h *Handler) cancelBooking(c *gin.Context) {
	var req cancelRequest
	// тело необязательно
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	appt, ok := h.loadAppointment(c, calendar.CapCancelAppointment)
	if !ok {
		return
	}
	cancelled, err := h.booking.Cancel(c.Request.Context(), appt.ID, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentDTO(cancelled))
}

// loadAppointment читает запись из пути и проверяет право актёра на неё.
func (h *Handler) loadAppointment(c *gin.Context, capability calendar.Capability) (*model.Appointment, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	appt, err := h.booking.Appointment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if !h.authorize(c, appt.ProfessionalID, capability, appt.ClientID) {
		return nil, false
	}
	return appt, true
}
