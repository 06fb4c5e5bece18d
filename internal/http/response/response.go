package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/platform/apierr"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/ctxutil"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	// 400s carry a generic message; field-level detail stays in the logs.
	if status == http.StatusBadRequest {
		msg = "invalid request"
	}
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps an *apierr.Error to its status and code. Anything
// else is a 500 with fallbackCode.
func RespondServiceError(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, fallbackCode, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondWebhook writes the {success, ...} envelope used by ingestion endpoints.
func RespondWebhook(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": status < http.StatusBadRequest}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// RespondWebhookError maps err like RespondServiceError but keeps the webhook
// envelope.
func RespondWebhookError(c *gin.Context, err error) {
	status, code, msg := http.StatusInternalServerError, "internal_error", "internal server error"
	var ae *apierr.Error
	if errors.As(err, &ae) {
		status, code = ae.Status, ae.Code
		if status != http.StatusInternalServerError && ae.Err != nil {
			msg = ae.Err.Error()
		}
	} else if err != nil {
		_ = c.Error(err)
	}
	RespondWebhook(c, status, gin.H{"error": msg, "code": code})
}

// InternalErrorBody is the envelope returned when a handler panics.
func InternalErrorBody(c *gin.Context) gin.H {
	return gin.H{
		"success":    false,
		"error":      "Internal server error",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": ctxutil.RequestID(c.Request.Context()),
	}
}
