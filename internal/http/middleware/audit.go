package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/ctxutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

const maxAuditBody = 1 << 20

// WebhookAudit appends one webhook_log row per request once the handler has
// responded. A failed write is logged and never changes the response.
func WebhookAudit(log *logger.Logger, audit services.AuditService) gin.HandlerFunc {
	log = log.With("Middleware", "WebhookAudit")
	return func(c *gin.Context) {
		start := time.Now()
		var body []byte
		if c.Request.Body != nil {
			raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			if err != nil {
				log.Warn("read webhook body failed", "error", err)
			}
			body = raw
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		}

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		entry := services.WebhookEntry{
			Endpoint:       endpoint,
			Method:         c.Request.Method,
			RequestID:      ctxutil.RequestID(c.Request.Context()),
			Payload:        body,
			ResponseStatus: c.Writer.Status(),
			Latency:        time.Since(start),
		}
		if last := c.Errors.Last(); last != nil {
			entry.Err = last.Error()
		}
		if res := audit.RecordWebhook(c.Request.Context(), entry); !res.OK {
			log.Warn("webhook audit skipped", "endpoint", endpoint, "reason", res.Reason)
		}
	}
}
