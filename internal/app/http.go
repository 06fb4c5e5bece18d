package app

import (
	crmhttp "github.com/yungbote/licensing-crm-backend/internal/http"
	httpH "github.com/yungbote/licensing-crm-backend/internal/http/handlers"
	httpMW "github.com/yungbote/licensing-crm-backend/internal/http/middleware"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Lead        *httpH.LeadHandler
	Enrollment  *httpH.EnrollmentHandler
	Document    *httpH.DocumentHandler
	Appointment *httpH.AppointmentHandler
	CallRecord  *httpH.CallRecordHandler
	Payment     *httpH.PaymentHandler
	Analytics   *httpH.AnalyticsHandler
	MCP         *httpH.MCPHandler
	Webhook     *httpH.WebhookHandler
	SMS         *httpH.SMSHandler
	Public      *httpH.PublicHandler
	Realtime    *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Lead:        httpH.NewLeadHandler(services.Leads),
		Enrollment:  httpH.NewEnrollmentHandler(services.Enrollments),
		Document:    httpH.NewDocumentHandler(services.Documents),
		Appointment: httpH.NewAppointmentHandler(services.Appointments),
		CallRecord:  httpH.NewCallRecordHandler(services.Calls),
		Payment:     httpH.NewPaymentHandler(services.Payments),
		Analytics:   httpH.NewAnalyticsHandler(services.Analytics),
		MCP:         httpH.NewMCPHandler(log, services.Dispatcher),
		Webhook:     httpH.NewWebhookHandler(log, services.Ingestion, services.Payments),
		SMS:         httpH.NewSMSHandler(services.SMS),
		Public:      httpH.NewPublicHandler(services.Ingestion),
		Realtime:    httpH.NewRealtimeHandler(log, hub),
	}
}

func wireServer(log *logger.Logger, cfg Config, services Services, handlers Handlers) *crmhttp.Server {
	log.Info("Wiring router...")
	return crmhttp.NewServer(crmhttp.RouterConfig{
		Log:                log,
		ServiceName:        cfg.Otel.ServiceName,
		AllowedOrigins:     cfg.CORSOrigins,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, services.Auth),
		Audit:              services.Audit,
		HealthHandler:      handlers.Health,
		LeadHandler:        handlers.Lead,
		EnrollmentHandler:  handlers.Enrollment,
		DocumentHandler:    handlers.Document,
		AppointmentHandler: handlers.Appointment,
		CallRecordHandler:  handlers.CallRecord,
		PaymentHandler:     handlers.Payment,
		AnalyticsHandler:   handlers.Analytics,
		MCPHandler:         handlers.MCP,
		WebhookHandler:     handlers.Webhook,
		SMSHandler:         handlers.SMS,
		PublicHandler:      handlers.Public,
		RealtimeHandler:    handlers.Realtime,
		MCPStream:          services.MCP.Handler(),
	})
}
