package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type PublicHandler struct {
	ingestion services.IngestionService
}

func NewPublicHandler(ingestion services.IngestionService) *PublicHandler {
	return &PublicHandler{ingestion: ingestion}
}

type bookingRequest struct {
	Name        string    `json:"name" binding:"required"`
	Phone       string    `json:"phone" binding:"required"`
	Email       string    `json:"email" binding:"omitempty,email"`
	LicenseGoal string    `json:"license_goal" binding:"omitempty,oneof=2-15 2-40 2-14"`
	DateTime    time.Time `json:"date_time" binding:"required"`
	Type        string    `json:"type" binding:"omitempty,oneof=consultation follow_up enrollment payment_discussion"`
	Notes       string    `json:"notes"`
}

// POST /api/public/appointments
func (h *PublicHandler) BookAppointment(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		response.RespondWebhook(c, http.StatusBadRequest, gin.H{"error": "name, phone and date_time are required"})
		return
	}
	res, err := h.ingestion.PublicBooking(c.Request.Context(), services.BookingInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		LicenseGoal: req.LicenseGoal,
		DateTime:    req.DateTime,
		Type:        req.Type,
		Notes:       req.Notes,
	})
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusCreated, gin.H{"data": res})
}
