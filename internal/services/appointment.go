package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
)

type AppointmentInput struct {
	LeadID          uint
	Title           string
	Description     string
	DateTime        time.Time
	DurationMinutes int
	Type            string
	Location        string
	Status          string
	Notes           string
}

type AppointmentUpdate struct {
	Title           *string
	Description     *string
	DateTime        *time.Time
	DurationMinutes *int
	Type            *string
	Location        *string
	Status          *string
	Notes           *string
	ReminderSent    *bool
}

type AppointmentService interface {
	Create(ctx context.Context, in AppointmentInput) (*crm.Appointment, error)
	Get(ctx context.Context, id uint) (*crm.Appointment, error)
	List(ctx context.Context, f repos.AppointmentFilter) ([]*crm.Appointment, int64, error)
	Update(ctx context.Context, id uint, u AppointmentUpdate) (*crm.Appointment, error)
	Delete(ctx context.Context, id uint) error
}

type appointmentService struct {
	log          *logger.Logger
	leads        repos.LeadRepo
	appointments repos.AppointmentRepo
	emitter      realtime.Emitter
}

func NewAppointmentService(log *logger.Logger, leads repos.LeadRepo, appointments repos.AppointmentRepo, emitter realtime.Emitter) AppointmentService {
	if emitter == nil {
		emitter = realtime.NopEmitter{}
	}
	return &appointmentService{
		log:          log.With("service", "AppointmentService"),
		leads:        leads,
		appointments: appointments,
		emitter:      emitter,
	}
}

func (s *appointmentService) changed(ctx context.Context, action string, a *crm.Appointment) {
	s.emitter.Emit(ctx, realtime.SSEEventAppointmentChanged, map[string]any{
		"action":      action,
		"appointment": a,
	})
}

func (s *appointmentService) Create(ctx context.Context, in AppointmentInput) (*crm.Appointment, error) {
	if in.LeadID == 0 {
		return nil, badRequest("invalid_lead_id", fmt.Errorf("lead_id required"))
	}
	if in.DateTime.IsZero() {
		return nil, badRequest("invalid_date_time", fmt.Errorf("date_time required"))
	}
	lead, err := s.leads.GetByID(dbctx.From(ctx), in.LeadID)
	if err != nil {
		return nil, internal("lead_lookup_failed", err)
	}
	if lead == nil {
		return nil, notFound("lead_not_found", "lead")
	}
	a := &crm.Appointment{
		LeadID:          lead.ID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		DateTime:        in.DateTime.UTC(),
		DurationMinutes: in.DurationMinutes,
		Type:            strings.TrimSpace(in.Type),
		Location:        in.Location,
		Status:          strings.TrimSpace(in.Status),
		Notes:           in.Notes,
	}
	if a.Type == "" {
		a.Type = crm.AppointmentConsultation
	}
	if a.Status == "" {
		a.Status = crm.AppointmentScheduled
	}
	if a.DurationMinutes <= 0 {
		a.DurationMinutes = 30
	}
	if a.Title == "" {
		a.Title = fmt.Sprintf("%s with %s", strings.ReplaceAll(a.Type, "_", " "), lead.FullName())
	}
	if err := s.appointments.Create(dbctx.From(ctx), a); err != nil {
		return nil, internal("appointment_create_failed", err)
	}
	s.changed(ctx, "created", a)
	return a, nil
}

func (s *appointmentService) Get(ctx context.Context, id uint) (*crm.Appointment, error) {
	a, err := s.appointments.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return nil, internal("appointment_lookup_failed", err)
	}
	if a == nil {
		return nil, notFound("appointment_not_found", "appointment")
	}
	return a, nil
}

func (s *appointmentService) List(ctx context.Context, f repos.AppointmentFilter) ([]*crm.Appointment, int64, error) {
	out, total, err := s.appointments.List(dbctx.From(ctx), f)
	if err != nil {
		return nil, 0, internal("appointment_list_failed", err)
	}
	return out, total, nil
}

func (s *appointmentService) Update(ctx context.Context, id uint, u AppointmentUpdate) (*crm.Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	setStr := func(col string, v *string, dst *string) {
		if v == nil {
			return
		}
		*dst = strings.TrimSpace(*v)
		updates[col] = *dst
	}
	setStr("title", u.Title, &a.Title)
	setStr("description", u.Description, &a.Description)
	setStr("type", u.Type, &a.Type)
	setStr("location", u.Location, &a.Location)
	setStr("status", u.Status, &a.Status)
	setStr("notes", u.Notes, &a.Notes)
	if u.DateTime != nil {
		a.DateTime = u.DateTime.UTC()
		updates["date_time"] = a.DateTime
	}
	if u.DurationMinutes != nil {
		if *u.DurationMinutes <= 0 {
			return nil, badRequest("invalid_duration", fmt.Errorf("duration must be positive"))
		}
		a.DurationMinutes = *u.DurationMinutes
		updates["duration_minutes"] = a.DurationMinutes
	}
	if u.ReminderSent != nil {
		a.ReminderSent = *u.ReminderSent
		updates["reminder_sent"] = a.ReminderSent
	}
	if len(updates) == 0 {
		return a, nil
	}
	if err := s.appointments.UpdateFields(dbctx.From(ctx), id, updates); err != nil {
		return nil, internal("appointment_update_failed", err)
	}
	s.changed(ctx, "updated", a)
	return a, nil
}

func (s *appointmentService) Delete(ctx context.Context, id uint) error {
	ok, err := s.appointments.Delete(dbctx.From(ctx), id)
	if err != nil {
		return internal("appointment_delete_failed", err)
	}
	if !ok {
		return notFound("appointment_not_found", "appointment")
	}
	s.changed(ctx, "deleted", &crm.Appointment{ID: id})
	return nil
}
