package httpapi

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/model"
)

type slotDTO struct {
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
	Label    string `json:"label"`
}

func toSlotDTOs(slots []availability.Slot, loc *time.Location) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{
			Date:     s.Date.String(),
			Start:    availability.FormatMinute(s.StartTime),
			End:      availability.FormatMinute(s.EndTime),
			StartsAt: s.StartsAt(loc).Format(time.RFC3339),
			EndsAt:   s.EndsAt(loc).Format(time.RFC3339),
			Label:    s.Label(),
		})
	}
	return out
}

type daySlotsDTO struct {
	Date  string    `json:"date"`
	Slots []slotDTO `json:"slots"`
}

type appointmentDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProfessionalID uuid.UUID  `json:"professional_id"`
	ClientID       *uuid.UUID `json:"client_id,omitempty"`
	ServiceID      *uuid.UUID `json:"service_id,omitempty"`
	Date           string     `json:"date"`
	Start          string     `json:"start"`
	End            string     `json:"end"`
	DurationMin    int        `json:"duration_min"`
	Status         string     `json:"status"`
	Comment        string     `json:"comment,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

func toAppointmentDTO(a *model.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:             a.ID,
		ProfessionalID: a.ProfessionalID,
		ClientID:       a.ClientID,
		ServiceID:      a.ServiceID,
		Date:           civil.DateOf(time.Time(a.Date)).String(),
		Start:          availability.FormatMinute(a.StartMinute),
		End:            availability.FormatMinute(a.StartMinute + a.DurationMin),
		DurationMin:    a.DurationMin,
		Status:         string(a.Status),
		Comment:        a.Comment,
		CancelledAt:    a.CancelledAt,
	}
}

type serviceDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DurationMin *int64    `json:"duration_min,omitempty"`
}

func toServiceDTOs(rows []model.Service) []serviceDTO {
	out := make([]serviceDTO, 0, len(rows))
	for _, s := range rows {
		out = append(out, serviceDTO{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			DurationMin: s.DefaultDurationMin,
		})
	}
	return out
}

type bookingRequest struct {
	ProfessionalID uuid.UUID  `json:"professional_id" binding:"required"`
	ServiceID      *uuid.UUID `json:"service_id"`
	ClientID       *uuid.UUID `json:"client_id"`
	Date           string     `json:"date" binding:"required"`
	Start          string     `json:"start" binding:"required"`
	DurationMin    int        `json:"duration_min" binding:"min=0"`
	Comment        string     `json:"comment" binding:"max=1000"`
}

type decisionDTO struct {
	Accepted    bool            `json:"accepted"`
	Reason      string          `json:"reason,omitempty"`
	Appointment *appointmentDTO `json:"appointment,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type lunchDTO struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// scheduleRequest — недельный шаблон. working_days: 0 — воскресенье, 6 — суббота.
type scheduleRequest struct {
	WorkingDays        []int     `json:"working_days"`
	Start              string    `json:"start" binding:"required"`
	End                string    `json:"end" binding:"required"`
	SlotDurationMin    int       `json:"slot_duration_min"`
	BufferMin          int       `json:"buffer_min"`
	Lunch              *lunchDTO `json:"lunch"`
	AdvanceBookingDays int       `json:"advance_booking_days"`
	MinNoticeHours     int       `json:"min_notice_hours"`
	IsActive           *bool     `json:"is_active"`
	TimeZone           string    `json:"time_zone"`
}

// toSchedule переводит запрос в расписание. Ошибки разбора возвращаются
// как *availability.ConfigError с именем поля.
func (r scheduleRequest) toSchedule(professionalID uuid.UUID, defaultLoc *time.Location) (availability.Schedule, error) {
	s := availability.Schedule{
		ProfessionalID:     professionalID,
		SlotDuration:       r.SlotDurationMin,
		BufferTime:         r.BufferMin,
		AdvanceBookingDays: r.AdvanceBookingDays,
		MinNoticeHours:     r.MinNoticeHours,
		IsActive:           r.IsActive == nil || *r.IsActive,
		Location:           defaultLoc,
	}

	var err error
	if s.StartTime, err = availability.ParseMinute(r.Start); err != nil {
		return s, &availability.ConfigError{Field: "start_time", Reason: err.Error()}
	}
	if s.EndTime, err = availability.ParseMinute(r.End); err != nil {
		return s, &availability.ConfigError{Field: "end_time", Reason: err.Error()}
	}
	if r.Lunch != nil {
		var w availability.Window
		if w.Start, err = availability.ParseMinute(r.Lunch.Start); err != nil {
			return s, &availability.ConfigError{Field: "lunch", Reason: err.Error()}
		}
		if w.End, err = availability.ParseMinute(r.Lunch.End); err != nil {
			return s, &availability.ConfigError{Field: "lunch", Reason: err.Error()}
		}
		s.Lunch = &w
	}
	for _, d := range r.WorkingDays {
		s.WorkingDays = append(s.WorkingDays, time.Weekday(d))
	}
	if r.TimeZone != "" {
		loc, err := time.LoadLocation(r.TimeZone)
		if err != nil {
			return s, &availability.ConfigError{Field: "time_zone", Reason: err.Error()}
		}
		s.Location = loc
	}
	return s, nil
}

type pageDTO[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
