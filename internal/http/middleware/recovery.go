package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/ctxutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

// Recovery turns a panic into the 500 envelope and stops there: the panic is
// not re-raised.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		headers := make(map[string]interface{}, len(c.Request.Header))
		for k, v := range c.Request.Header {
			headers[k] = v
		}
		log.Error("panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"url", c.Request.URL.String(),
			"request_id", ctxutil.RequestID(c.Request.Context()),
			"headers", headers,
			"stack", string(debug.Stack()),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.InternalErrorBody(c))
	})
}
