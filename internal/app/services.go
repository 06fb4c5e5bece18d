package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/cache"
	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/mcpserver"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/clock"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
	"github.com/yungbote/licensing-crm-backend/internal/realtime/bus"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type Services struct {
	Auth         services.TokenAuthenticator
	Leads        services.LeadService
	Enrollments  services.EnrollmentService
	Appointments services.AppointmentService
	Payments     services.PaymentService
	Documents    services.DocumentService
	Calls        services.CallService
	Analytics    services.AnalyticsService
	Dispatcher   services.Dispatcher
	Ingestion    services.IngestionService
	Audit        services.AuditService
	SMS          services.SMSService

	MCP *mcpserver.Server
	Bus bus.Bus
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet repos.Set, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")
	clk := clock.Real{}

	var store cache.Cache
	if clients.Redis != nil {
		store = cache.NewRedis(clients.Redis, "crm:cache:")
	} else {
		mem, err := cache.NewMemory(cfg.CacheMaxEntries, clk)
		if err != nil {
			return Services{}, fmt.Errorf("init cache: %w", err)
		}
		store = mem
	}
	memo := cache.NewMemo(store, log)

	var sseBus bus.Bus
	if clients.Redis != nil {
		b, err := bus.NewRedisBus(log, clients.Redis, cfg.Redis.Channel)
		if err != nil {
			return Services{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}
	emitter := realtime.NewEmitter(log, hub, sseBus, realtime.DefaultChannel)

	tx := aggregates.NewGormTxRunner(db)
	cal := services.NewCalendar(clk, cfg.Location)
	notifier := services.NewNotifier(log, clients.Twilio, clients.Email, cfg.Notifier)

	leads := services.NewLeadService(log, tx, reposet.Lead, reposet.StatusHistory, reposet.Enrollment, notifier, emitter, memo, clk, cfg.Leads)
	enrollments := services.NewEnrollmentService(log, tx, reposet.Lead, reposet.Enrollment, leads, emitter)
	appointments := services.NewAppointmentService(log, reposet.Lead, reposet.Appointment, emitter)
	payments := services.NewPaymentService(log, tx, reposet.Lead, reposet.Payment, leads, notifier, clients.Stripe, emitter)
	documents := services.NewDocumentService(log, reposet.Enrollment, reposet.Document, clients.Bucket)
	calls := services.NewCallService(log, reposet.CallRecord)
	analytics := services.NewAnalyticsService(log, reposet.Analytics, cal, memo, cfg.AnalyticsCacheTTL)
	dispatcher := services.NewDispatcher(log, reposet.Analytics, reposet.Lead, cal, memo, cfg.MCPCacheTTL)
	audit := services.NewAuditService(log, reposet.WebhookLog, reposet.AgentMetric, reposet.ChatHistory)
	ingestion := services.NewIngestionService(log, leads, calls, appointments, audit, dispatcher)

	authn := services.NewTokenAuthenticator(log, cfg.Auth)
	if !authn.Enabled() {
		log.Warn("no MCP_AUTH_TOKEN or MCP_JWT_SECRET configured; protected endpoints reject every request unless MCP_ALLOW_UNAUTHENTICATED is set")
	}

	return Services{
		Auth:         authn,
		Leads:        leads,
		Enrollments:  enrollments,
		Appointments: appointments,
		Payments:     payments,
		Documents:    documents,
		Calls:        calls,
		Analytics:    analytics,
		Dispatcher:   dispatcher,
		Ingestion:    ingestion,
		Audit:        audit,
		SMS:          services.NewSMSService(log, clients.Twilio, cfg.PersonalSMSTo),
		MCP:          mcpserver.New(log, dispatcher, Version),
		Bus:          sseBus,
	}, nil
}
