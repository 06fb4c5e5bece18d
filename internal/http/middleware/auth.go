package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

const ContextKeySubject = "auth_subject"

type AuthMiddleware struct {
	log   *logger.Logger
	authn services.TokenAuthenticator
}

func NewAuthMiddleware(log *logger.Logger, authn services.TokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), authn: authn}
}

// RequireBearer rejects the request before any handler or audit middleware
// registered after it runs.
func (am *AuthMiddleware) RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := am.authn.Authenticate(services.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			am.log.Warn("bearer auth rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}
		c.Set(ContextKeySubject, subject)
		c.Next()
	}
}
