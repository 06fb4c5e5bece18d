package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type AppointmentHandler struct {
	appointments services.AppointmentService
}

func NewAppointmentHandler(appointments services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

type createAppointmentRequest struct {
	LeadID          uint      `json:"lead_id" binding:"required"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DateTime        time.Time `json:"date_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Type            string    `json:"type" binding:"omitempty,oneof=consultation follow_up enrollment payment_discussion"`
	Location        string    `json:"location"`
	Status          string    `json:"status" binding:"omitempty,oneof=scheduled confirmed completed cancelled no_show"`
	Notes           string    `json:"notes"`
}

type updateAppointmentRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	DateTime        *time.Time `json:"date_time"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Type            *string    `json:"type" binding:"omitempty,oneof=consultation follow_up enrollment payment_discussion"`
	Location        *string    `json:"location"`
	Status          *string    `json:"status" binding:"omitempty,oneof=scheduled confirmed completed cancelled no_show"`
	Notes           *string    `json:"notes"`
	ReminderSent    *bool      `json:"reminder_sent"`
}

// GET /api/appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	f := repos.AppointmentFilter{
		LeadID: queryUint(c, "lead_id"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	}
	if t, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		f.To = &t
	}
	rows, total, err := h.appointments.List(c.Request.Context(), f)
	if err != nil {
		response.RespondServiceError(c, "list_appointments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"appointments": rows, "total": total})
}

// GET /api/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_appointment_id")
	if !ok {
		return
	}
	a, err := h.appointments.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_appointment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"appointment": a})
}

// POST /api/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a, err := h.appointments.Create(c.Request.Context(), services.AppointmentInput{
		LeadID:          req.LeadID,
		Title:           req.Title,
		Description:     req.Description,
		DateTime:        req.DateTime,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Location:        req.Location,
		Status:          req.Status,
		Notes:           req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, "create_appointment_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"appointment": a})
}

// PATCH /api/appointments/:id
func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_appointment_id")
	if !ok {
		return
	}
	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a, err := h.appointments.Update(c.Request.Context(), id, services.AppointmentUpdate{
		Title:           req.Title,
		Description:     req.Description,
		DateTime:        req.DateTime,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Location:        req.Location,
		Status:          req.Status,
		Notes:           req.Notes,
		ReminderSent:    req.ReminderSent,
	})
	if err != nil {
		response.RespondServiceError(c, "update_appointment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"appointment": a})
}

// DELETE /api/appointments/:id
func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_appointment_id")
	if !ok {
		return
	}
	if err := h.appointments.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, "delete_appointment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
