package handlers

import (
	"encoding/xml"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/normalization"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

const (
	twilioFallbackReply = "Sorry, we could not process your message right now. An enrollment advisor will reach out soon."
	maxStripeBody       = 1 << 16
)

type WebhookHandler struct {
	log       *logger.Logger
	ingestion services.IngestionService
	payments  services.PaymentService
}

func NewWebhookHandler(log *logger.Logger, ingestion services.IngestionService, payments services.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		log:       log.With("handler", "WebhookHandler"),
		ingestion: ingestion,
		payments:  payments,
	}
}

func (h *WebhookHandler) payload(c *gin.Context) (normalization.Payload, bool) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		_ = c.Error(err)
		response.RespondWebhook(c, http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return nil, false
	}
	return normalization.NewPayload(raw), true
}

// POST /api/webhooks/elevenlabs-call
func (h *WebhookHandler) ElevenLabsCall(c *gin.Context) {
	p, ok := h.payload(c)
	if !ok {
		return
	}
	res, err := h.ingestion.VoiceCall(c.Request.Context(), p)
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusOK, gin.H{"data": res})
}

// POST /api/webhooks/elevenlabs-agent-data
func (h *WebhookHandler) ElevenLabsAgentData(c *gin.Context) {
	p, ok := h.payload(c)
	if !ok {
		return
	}
	res, err := h.ingestion.AgentData(c.Request.Context(), p)
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusOK, gin.H{"data": res})
}

// POST /api/webhooks/internal-query
func (h *WebhookHandler) InternalQuery(c *gin.Context) {
	p, ok := h.payload(c)
	if !ok {
		return
	}
	answer, err := h.ingestion.InternalQuery(c.Request.Context(), p)
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusOK, gin.H{"result": answer})
}

// POST /api/webhooks/n8n-lead-processor
func (h *WebhookHandler) N8nLeadProcessor(c *gin.Context) {
	p, ok := h.payload(c)
	if !ok {
		return
	}
	res, err := h.ingestion.N8nLead(c.Request.Context(), p)
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusOK, gin.H{"data": res})
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

func respondTwiML(c *gin.Context, message string) {
	body, err := xml.Marshal(twimlMessage{Message: message})
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

// POST /api/webhooks/twilio-sms (form encoded). Twilio always gets a 200 with
// TwiML; failures are reported in the reply text and the audit log.
func (h *WebhookHandler) TwilioSMS(c *gin.Context) {
	in := services.InboundSMS{
		From:       c.PostForm("From"),
		Body:       c.PostForm("Body"),
		MessageSID: c.PostForm("MessageSid"),
	}
	reply, err := h.ingestion.InboundSMS(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		h.log.Warn("inbound sms failed", "from", in.From, "sid", in.MessageSID, "error", err)
		respondTwiML(c, twilioFallbackReply)
		return
	}
	respondTwiML(c, reply.Message)
}

// POST /api/webhooks/twilio-sms-fallback
func (h *WebhookHandler) TwilioSMSFallback(c *gin.Context) {
	h.log.Warn("twilio fallback invoked",
		"from", c.PostForm("From"),
		"sid", c.PostForm("MessageSid"),
		"error_code", c.PostForm("ErrorCode"),
		"error_url", c.PostForm("ErrorUrl"),
	)
	respondTwiML(c, twilioFallbackReply)
}

// POST /api/webhooks/stripe
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStripeBody))
	if err != nil {
		response.RespondWebhook(c, http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	res, err := h.payments.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.RespondWebhookError(c, err)
		return
	}
	response.RespondWebhook(c, http.StatusOK, gin.H{"received": true, "data": res})
}
