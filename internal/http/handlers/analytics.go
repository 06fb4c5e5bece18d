package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GET /api/analytics
func (h *AnalyticsHandler) Get(c *gin.Context) {
	snap, err := h.analytics.Snapshot(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "analytics_failed", err)
		return
	}
	response.RespondOK(c, snap)
}
