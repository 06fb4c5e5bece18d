package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type MCPHandler struct {
	log        *logger.Logger
	dispatcher services.Dispatcher
}

func NewMCPHandler(log *logger.Logger, dispatcher services.Dispatcher) *MCPHandler {
	return &MCPHandler{log: log.With("handler", "MCPHandler"), dispatcher: dispatcher}
}

type mcpQueryRequest struct {
	Query string `json:"query"`
}

// POST /api/mcp answers with a single SSE frame: data: {"result": "..."}.
// An unreadable body is treated as an empty query.
func (h *MCPHandler) Query(c *gin.Context) {
	var req mcpQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("mcp query body not decoded", "error", err)
		req = mcpQueryRequest{}
	}
	answer := h.dispatcher.Dispatch(c.Request.Context(), req.Query)
	frame, err := json.Marshal(gin.H{"result": answer})
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "encode_failed", err)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", frame)
	c.Writer.Flush()
}

// GET /api/mcp/health
func (h *MCPHandler) Health(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
