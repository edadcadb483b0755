package repository

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/model"
)

// ScheduleToDomain переводит строку schedules в значение ядра и сразу
// проверяет инварианты. Пустой TimeZone заменяется на defaultLoc.
func ScheduleToDomain(m *model.Schedule, defaultLoc *time.Location) (availability.Schedule, error) {
	s := availability.Schedule{
		ProfessionalID:     m.ProfessionalID,
		StartTime:          m.StartMinute,
		EndTime:            m.EndMinute,
		SlotDuration:       m.SlotDurationMin,
		BufferTime:         m.BufferMin,
		AdvanceBookingDays: m.AdvanceBookingDays,
		MinNoticeHours:     m.MinNoticeHours,
		IsActive:           m.IsActive,
		Location:           defaultLoc,
	}

	if len(m.WorkingDays) > 0 {
		var days []int
		if err := json.Unmarshal(m.WorkingDays, &days); err != nil {
			return availability.Schedule{}, &availability.ConfigError{Field: "working_days", Reason: err.Error()}
		}
		for _, d := range days {
			s.WorkingDays = append(s.WorkingDays, time.Weekday(d))
		}
	}

	switch {
	case m.LunchStartMin != nil && m.LunchEndMin != nil:
		s.Lunch = &availability.Window{Start: *m.LunchStartMin, End: *m.LunchEndMin}
	case m.LunchStartMin != nil || m.LunchEndMin != nil:
		return availability.Schedule{}, &availability.ConfigError{
			Field:  "lunch",
			Reason: "lunch_start and lunch_end must be set together",
		}
	}

	if m.TimeZone != "" {
		loc, err := time.LoadLocation(m.TimeZone)
		if err != nil {
			return availability.Schedule{}, &availability.ConfigError{Field: "time_zone", Reason: err.Error()}
		}
		s.Location = loc
	}

	if err := s.Validate(); err != nil {
		return availability.Schedule{}, err
	}
	return s, nil
}

// ScheduleFromDomain делает обратное преобразование для сохранения.
func ScheduleFromDomain(s availability.Schedule) (*model.Schedule, error) {
	days := make([]int, 0, len(s.WorkingDays))
	for _, d := range s.WorkingDays {
		days = append(days, int(d))
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return nil, err
	}

	m := &model.Schedule{
		ProfessionalID:     s.ProfessionalID,
		WorkingDays:        raw,
		StartMinute:        s.StartTime,
		EndMinute:          s.EndTime,
		SlotDurationMin:    s.SlotDuration,
		BufferMin:          s.BufferTime,
		AdvanceBookingDays: s.AdvanceBookingDays,
		MinNoticeHours:     s.MinNoticeHours,
		IsActive:           s.IsActive,
	}
	if s.Lunch != nil {
		start, end := s.Lunch.Start, s.Lunch.End
		m.LunchStartMin = &start
		m.LunchEndMin = &end
	}
	if s.Location != nil {
		m.TimeZone = s.Location.String()
	}
	return m, nil
}

// AppointmentToDomain отдаёт запись журнала в виде, который понимает ядро.
func AppointmentToDomain(a model.Appointment) availability.Appointment {
	return availability.Appointment{
		ID:              a.ID,
		ProfessionalID:  a.ProfessionalID,
		Date:            civil.DateOf(time.Time(a.Date)),
		StartTime:       a.StartMinute,
		DurationMinutes: a.DurationMin,
		Status:          availability.Status(a.Status),
	}
}

func appointmentsToDomain(rows []model.Appointment) []availability.Appointment {
	out := make([]availability.Appointment, 0, len(rows))
	for _, a := range rows {
		out = append(out, AppointmentToDomain(a))
	}
	return out
}
