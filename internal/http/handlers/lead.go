package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type LeadHandler struct {
	leads services.LeadService
}

func NewLeadHandler(leads services.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

type leadRequest struct {
	Phone              *string    `json:"phone"`
	FirstName          *string    `json:"first_name"`
	LastName           *string    `json:"last_name"`
	Email              *string    `json:"email" binding:"omitempty,email"`
	LicenseGoal        *string    `json:"license_goal" binding:"omitempty,oneof=2-15 2-40 2-14"`
	Source             *string    `json:"source" binding:"omitempty,oneof=voice_agent website referral n8n sms manual"`
	Status             *string    `json:"status"`
	PainPoints         *string    `json:"pain_points"`
	EmploymentStatus   *string    `json:"employment_status"`
	UrgencyLevel       *string    `json:"urgency_level"`
	PaymentPreference  *string    `json:"payment_preference"`
	PaymentStatus      *string    `json:"payment_status"`
	ConfirmationNumber *string    `json:"confirmation_number"`
	AgentName          *string    `json:"agent_name"`
	Supervisor         *string    `json:"supervisor"`
	CallSummary        *string    `json:"call_summary"`
	CallTimestamp      *time.Time `json:"call_timestamp"`
	ConversationID     *string    `json:"conversation_id"`
	Notes              *string    `json:"notes"`
}

func (r leadRequest) fields() services.LeadFields {
	return services.LeadFields{
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Email:              r.Email,
		LicenseGoal:        r.LicenseGoal,
		Source:             r.Source,
		Status:             r.Status,
		PainPoints:         r.PainPoints,
		EmploymentStatus:   r.EmploymentStatus,
		UrgencyLevel:       r.UrgencyLevel,
		PaymentPreference:  r.PaymentPreference,
		PaymentStatus:      r.PaymentStatus,
		ConfirmationNumber: r.ConfirmationNumber,
		AgentName:          r.AgentName,
		Supervisor:         r.Supervisor,
		CallSummary:        r.CallSummary,
		CallTimestamp:      r.CallTimestamp,
		ConversationID:     r.ConversationID,
		Notes:              r.Notes,
	}
}

// GET /api/leads
func (h *LeadHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	leads, total, err := h.leads.List(c.Request.Context(), repos.LeadFilter{
		Status:      c.Query("status"),
		Source:      c.Query("source"),
		LicenseGoal: c.Query("license_goal"),
		Search:      c.Query("search"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		response.RespondServiceError(c, "list_leads_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"leads": leads, "total": total})
}

// GET /api/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_lead_id")
	if !ok {
		return
	}
	lead, err := h.leads.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_lead_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"lead": lead})
}

// POST /api/leads creates a lead, or updates the existing one with the same
// phone number.
func (h *LeadHandler) Create(c *gin.Context) {
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Phone == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_phone", nil)
		return
	}
	res, err := h.leads.Upsert(c.Request.Context(), *req.Phone, req.fields(), nil)
	if err != nil {
		response.RespondServiceError(c, "create_lead_failed", err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"lead": res.Lead, "created": res.Created})
}

// PATCH /api/leads/:id
func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_lead_id")
	if !ok {
		return
	}
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.leads.Update(c.Request.Context(), id, req.Phone, req.fields())
	if err != nil {
		response.RespondServiceError(c, "update_lead_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"lead": res.Lead})
}

// GET /api/leads/:id/history
func (h *LeadHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_lead_id")
	if !ok {
		return
	}
	rows, err := h.leads.History(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "lead_history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"history": rows})
}
