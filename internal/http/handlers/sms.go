package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type SMSHandler struct {
	sms services.SMSService
}

func NewSMSHandler(sms services.SMSService) *SMSHandler {
	return &SMSHandler{sms: sms}
}

type testSMSRequest struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message"`
}

type personalSMSRequest struct {
	Message string `json:"message"`
}

// POST /api/test-sms
func (h *SMSHandler) TestSMS(c *gin.Context) {
	var req testSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondWebhook(c, http.StatusBadRequest, gin.H{"error": "to is required"})
		return
	}
	msg, err := h.sms.SendTest(c.Request.Context(), req.To, req.Message)
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusOK, gin.H{"message_sid": msg.SID, "status": msg.Status})
}

// POST /api/test-personal-sms
func (h *SMSHandler) TestPersonalSMS(c *gin.Context) {
	var req personalSMSRequest
	_ = c.ShouldBindJSON(&req)
	msg, err := h.sms.SendPersonal(c.Request.Context(), req.Message)
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusOK, gin.H{"message_sid": msg.SID, "status": msg.Status})
}
