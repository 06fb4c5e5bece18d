package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type CallRecordHandler struct {
	calls services.CallService
}

func NewCallRecordHandler(calls services.CallService) *CallRecordHandler {
	return &CallRecordHandler{calls: calls}
}

// GET /api/call-records
func (h *CallRecordHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	rows, total, err := h.calls.List(c.Request.Context(), repos.CallRecordFilter{
		LeadID: queryUint(c, "lead_id"),
		Intent: c.Query("intent"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.RespondServiceError(c, "list_call_records_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"call_records": rows, "total": total})
}
