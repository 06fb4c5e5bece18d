package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type PaymentHandler struct {
	payments services.PaymentService
}

func NewPaymentHandler(payments services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	LeadID     uint    `json:"lead_id" binding:"required"`
	PlanChosen string  `json:"plan_chosen" binding:"omitempty,oneof=full_payment payment_plan"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"omitempty,len=3"`
}

type updatePaymentRequest struct {
	Status string `json:"status" binding:"required"`
}

// GET /api/payments
func (h *PaymentHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	rows, total, err := h.payments.List(c.Request.Context(), repos.PaymentFilter{
		LeadID: queryUint(c, "lead_id"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.RespondServiceError(c, "list_payments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"payments": rows, "total": total})
}

// GET /api/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_payment_id")
	if !ok {
		return
	}
	p, err := h.payments.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_payment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"payment": p})
}

// POST /api/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.payments.Create(c.Request.Context(), services.PaymentInput{
		LeadID:     req.LeadID,
		PlanChosen: req.PlanChosen,
		Amount:     req.Amount,
		Currency:   req.Currency,
	})
	if err != nil {
		response.RespondServiceError(c, "create_payment_failed", err)
		return
	}
	response.RespondCreated(c, res)
}

// PATCH /api/payments/:id
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_payment_id")
	if !ok {
		return
	}
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.payments.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondServiceError(c, "update_payment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"payment": p})
}
