package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{Log: log.With("handler", "RealtimeHandler"), Hub: hub}
}

// GET /api/events/stream subscribes the dashboard to CRM change events.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client := h.Hub.NewSSEClient()
	h.Hub.AddChannel(client, realtime.DefaultChannel)
	h.Log.Debug("SSE stream open", "clientID", client.ID)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.CloseClient(client)
}
