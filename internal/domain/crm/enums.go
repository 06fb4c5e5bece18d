package crm

// Lead statuses. hot_lead and returning_customer are tolerated values that
// count as active in analytics but are never produced by the lifecycle engine.
const (
	LeadStatusNew               = "new"
	LeadStatusContacted         = "contacted"
	LeadStatusQualified         = "qualified"
	LeadStatusEnrolled          = "enrolled"
	LeadStatusOptOut            = "opt_out"
	LeadStatusHotLead           = "hot_lead"
	LeadStatusReturningCustomer = "returning_customer"
)

// ActiveLeadStatuses are the statuses counted by the activeLeads rollup.
var ActiveLeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusHotLead,
	LeadStatusReturningCustomer,
}

// License goals offered by the school.
const (
	License215 = "2-15" // life, health and annuities
	License240 = "2-40" // health only
	License214 = "2-14" // life only
)

var LicenseGoals = []string{License215, License240, License214}

const DefaultLicenseGoal = License215

const (
	SourceVoiceAgent = "voice_agent"
	SourceWebsite    = "website"
	SourceReferral   = "referral"
	SourceN8n        = "n8n"
	SourceSMS        = "sms"
	SourceManual     = "manual"
)

var LeadSources = []string{SourceVoiceAgent, SourceWebsite, SourceReferral, SourceN8n, SourceSMS, SourceManual}

// Lead payment status as reported by the voice agent.
const (
	LeadPaid    = "PAID"
	LeadNotPaid = "NOT_PAID"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

// OutstandingPaymentStatuses are summed by the outstandingPayments rollup.
var OutstandingPaymentStatuses = []string{PaymentPending, PaymentProcessing, PaymentFailed}

const (
	PlanFullPayment = "full_payment"
	PlanPaymentPlan = "payment_plan"
)

const (
	CohortDay     = "day"
	CohortEvening = "evening"
	CohortWeekend = "weekend"
)

const (
	EnrollmentEnrolled  = "enrolled"
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentDropped   = "dropped"
)

const (
	AppointmentConsultation      = "consultation"
	AppointmentFollowUp          = "follow_up"
	AppointmentEnrollment        = "enrollment"
	AppointmentPaymentDiscussion = "payment_discussion"
)

const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

const (
	DocumentLicenseApplication = "license_application"
	DocumentIDVerification     = "id_verification"
	DocumentPaymentReceipt     = "payment_receipt"
	DocumentCertificate        = "certificate"
	DocumentOther              = "other"
)

const (
	DocumentPending  = "pending"
	DocumentApproved = "approved"
	DocumentRejected = "rejected"
)

// Placeholders used when a webhook sender omits identity fields.
const (
	UnknownName       = "Unknown"
	DefaultAgentName  = "AI Assistant"
	DefaultSupervisor = "Unassigned"
	PlaceholderDomain = "noemail.local"
)

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func IsActiveLeadStatus(s string) bool { return contains(ActiveLeadStatuses, s) }

func IsLicenseGoal(s string) bool { return contains(LicenseGoals, s) }

func IsLeadSource(s string) bool { return contains(LeadSources, s) }
