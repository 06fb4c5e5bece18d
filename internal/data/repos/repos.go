package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/analytics"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/appointments"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/audit"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/calls"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/documents"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/enrollments"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/leads"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/payments"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type LeadRepo = leads.LeadRepo
type StatusHistoryRepo = leads.StatusHistoryRepo
type CallRecordRepo = calls.CallRecordRepo
type PaymentRepo = payments.PaymentRepo
type EnrollmentRepo = enrollments.EnrollmentRepo
type AppointmentRepo = appointments.AppointmentRepo
type DocumentRepo = documents.DocumentRepo
type WebhookLogRepo = audit.WebhookLogRepo
type AgentMetricRepo = audit.AgentMetricRepo
type ChatHistoryRepo = audit.ChatHistoryRepo
type AnalyticsRepo = analytics.AnalyticsRepo

type LeadFilter = leads.ListFilter
type CallRecordFilter = calls.ListFilter
type PaymentFilter = payments.ListFilter
type EnrollmentFilter = enrollments.ListFilter
type AppointmentFilter = appointments.ListFilter
type WebhookLogFilter = audit.ListFilter

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo { return leads.NewLeadRepo(db, baseLog) }
func NewStatusHistoryRepo(db *gorm.DB, baseLog *logger.Logger) StatusHistoryRepo {
	return leads.NewStatusHistoryRepo(db, baseLog)
}
func NewCallRecordRepo(db *gorm.DB, baseLog *logger.Logger) CallRecordRepo {
	return calls.NewCallRecordRepo(db, baseLog)
}
func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return payments.NewPaymentRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return enrollments.NewEnrollmentRepo(db, baseLog)
}
func NewAppointmentRepo(db *gorm.DB, baseLog *logger.Logger) AppointmentRepo {
	return appointments.NewAppointmentRepo(db, baseLog)
}
func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return documents.NewDocumentRepo(db, baseLog)
}
func NewWebhookLogRepo(db *gorm.DB, baseLog *logger.Logger) WebhookLogRepo {
	return audit.NewWebhookLogRepo(db, baseLog)
}
func NewAgentMetricRepo(db *gorm.DB, baseLog *logger.Logger) AgentMetricRepo {
	return audit.NewAgentMetricRepo(db, baseLog)
}
func NewChatHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ChatHistoryRepo {
	return audit.NewChatHistoryRepo(db, baseLog)
}
func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return analytics.NewAnalyticsRepo(db, baseLog)
}

// Set bundles every CRM repository over one database handle.
type Set struct {
	Lead          LeadRepo
	StatusHistory StatusHistoryRepo
	CallRecord    CallRecordRepo
	Payment       PaymentRepo
	Enrollment    EnrollmentRepo
	Appointment   AppointmentRepo
	Document      DocumentRepo
	WebhookLog    WebhookLogRepo
	AgentMetric   AgentMetricRepo
	ChatHistory   ChatHistoryRepo
	Analytics     AnalyticsRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Lead:          NewLeadRepo(db, baseLog),
		StatusHistory: NewStatusHistoryRepo(db, baseLog),
		CallRecord:    NewCallRecordRepo(db, baseLog),
		Payment:       NewPaymentRepo(db, baseLog),
		Enrollment:    NewEnrollmentRepo(db, baseLog),
		Appointment:   NewAppointmentRepo(db, baseLog),
		Document:      NewDocumentRepo(db, baseLog),
		WebhookLog:    NewWebhookLogRepo(db, baseLog),
		AgentMetric:   NewAgentMetricRepo(db, baseLog),
		ChatHistory:   NewChatHistoryRepo(db, baseLog),
		Analytics:     NewAnalyticsRepo(db, baseLog),
	}
}
