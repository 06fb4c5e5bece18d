package domain

import "github.com/yungbote/licensing-crm-backend/internal/domain/crm"

type (
	Lead               = crm.Lead
	LeadStatusHistory  = crm.LeadStatusHistory
	CallRecord         = crm.CallRecord
	Payment            = crm.Payment
	Enrollment         = crm.Enrollment
	Appointment        = crm.Appointment
	EnrollmentDocument = crm.EnrollmentDocument
	WebhookLog         = crm.WebhookLog
	AgentMetric        = crm.AgentMetric
	N8nChatHistory     = crm.N8nChatHistory
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Lead{},
		&LeadStatusHistory{},
		&CallRecord{},
		&Payment{},
		&Enrollment{},
		&EnrollmentDocument{},
		&Appointment{},
		&WebhookLog{},
		&AgentMetric{},
		&N8nChatHistory{},
	}
}
