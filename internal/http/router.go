package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/licensing-crm-backend/internal/http/handlers"
	httpMW "github.com/yungbote/licensing-crm-backend/internal/http/middleware"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	AuthMiddleware *httpMW.AuthMiddleware
	Audit          services.AuditService

	HealthHandler      *httpH.HealthHandler
	LeadHandler        *httpH.LeadHandler
	EnrollmentHandler  *httpH.EnrollmentHandler
	DocumentHandler    *httpH.DocumentHandler
	AppointmentHandler *httpH.AppointmentHandler
	CallRecordHandler  *httpH.CallRecordHandler
	PaymentHandler     *httpH.PaymentHandler
	AnalyticsHandler   *httpH.AnalyticsHandler
	MCPHandler         *httpH.MCPHandler
	WebhookHandler     *httpH.WebhookHandler
	SMSHandler         *httpH.SMSHandler
	PublicHandler      *httpH.PublicHandler
	RealtimeHandler    *httpH.RealtimeHandler

	// MCPStream serves the MCP streamable HTTP transport.
	MCPStream nethttp.Handler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Recovery(cfg.Log))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	audit := func(c *gin.Context) { c.Next() }
	if cfg.Audit != nil {
		audit = httpMW.WebhookAudit(cfg.Log, cfg.Audit)
	}
	bearer := func(c *gin.Context) {
		c.AbortWithStatus(nethttp.StatusUnauthorized)
	}
	if cfg.AuthMiddleware != nil {
		bearer = cfg.AuthMiddleware.RequireBearer()
	}

	api := r.Group("/api")

	if h := cfg.LeadHandler; h != nil {
		api.GET("/leads", h.List)
		api.POST("/leads", h.Create)
		api.GET("/leads/:id", h.Get)
		api.PATCH("/leads/:id", h.Update)
		api.GET("/leads/:id/history", h.History)
	}

	if h := cfg.EnrollmentHandler; h != nil {
		api.GET("/enrollments", h.List)
		api.POST("/enrollments", h.Create)
		api.GET("/enrollments/:id", h.Get)
		api.PATCH("/enrollments/:id", h.Update)
	}

	if h := cfg.DocumentHandler; h != nil {
		api.GET("/enrollments/:id/documents", h.List)
		api.POST("/enrollments/:id/documents", h.Upload)
		api.DELETE("/documents/:id", h.Delete)
	}

	if h := cfg.AppointmentHandler; h != nil {
		api.GET("/appointments", h.List)
		api.POST("/appointments", h.Create)
		api.GET("/appointments/:id", h.Get)
		api.PATCH("/appointments/:id", h.Update)
		api.DELETE("/appointments/:id", h.Delete)
	}

	if h := cfg.CallRecordHandler; h != nil {
		api.GET("/call-records", h.List)
	}

	if h := cfg.PaymentHandler; h != nil {
		api.GET("/payments", h.List)
		api.POST("/payments", h.Create)
		api.GET("/payments/:id", h.Get)
		api.PATCH("/payments/:id", h.Update)
	}

	if h := cfg.AnalyticsHandler; h != nil {
		api.GET("/analytics", h.Get)
	}

	// MCP: auth runs before the audit middleware so a rejected call leaves no
	// trace in the webhook log.
	if h := cfg.MCPHandler; h != nil {
		api.GET("/mcp/health", h.Health)
		api.POST("/mcp", bearer, audit, h.Query)
	}
	if cfg.MCPStream != nil {
		stream := gin.WrapH(cfg.MCPStream)
		api.GET("/mcp/stream", bearer, stream)
		api.POST("/mcp/stream", bearer, stream)
		api.DELETE("/mcp/stream", bearer, stream)
	}

	// Webhooks
	if h := cfg.WebhookHandler; h != nil {
		hooks := api.Group("/webhooks")
		hooks.POST("/elevenlabs-call", audit, h.ElevenLabsCall)
		hooks.POST("/elevenlabs-agent-data", audit, h.ElevenLabsAgentData)
		hooks.POST("/internal-query", bearer, audit, h.InternalQuery)
		hooks.POST("/n8n-lead-processor", audit, h.N8nLeadProcessor)
		hooks.POST("/twilio-sms", audit, h.TwilioSMS)
		hooks.POST("/twilio-sms-fallback", audit, h.TwilioSMSFallback)
		hooks.POST("/stripe", audit, h.Stripe)
	}

	if h := cfg.SMSHandler; h != nil {
		api.POST("/test-sms", h.TestSMS)
		api.POST("/test-personal-sms", h.TestPersonalSMS)
	}

	if h := cfg.PublicHandler; h != nil {
		api.POST("/public/appointments", audit, h.BookAppointment)
	}

	// Realtime (SSE)
	if h := cfg.RealtimeHandler; h != nil {
		api.GET("/events/stream", h.Stream)
	}

	return r
}
