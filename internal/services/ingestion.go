package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
	"github.com/yungbote/licensing-crm-backend/internal/normalization"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/pointers"
)

// IngestResult is the JSON body returned by the ingestion webhooks.
type IngestResult struct {
	LeadID        uint           `json:"lead_id,omitempty"`
	Created       bool           `json:"created"`
	Status        string         `json:"status,omitempty"`
	CallRecordID  uint           `json:"call_record_id,omitempty"`
	Duplicate     bool           `json:"duplicate_call,omitempty"`
	EnrollmentID  uint           `json:"enrollment_id,omitempty"`
	Metrics       int            `json:"metrics_recorded,omitempty"`
	Notifications []NotifyResult `json:"notifications,omitempty"`
}

type InboundSMS struct {
	From       string
	Body       string
	MessageSID string
}

type SMSReply struct {
	LeadID  uint   `json:"lead_id,omitempty"`
	OptOut  bool   `json:"opt_out"`
	Message string `json:"message"`
}

type BookingInput struct {
	Name        string
	Phone       string
	Email       string
	LicenseGoal string
	DateTime    time.Time
	Type        string
	Notes       string
}

type BookingResult struct {
	LeadID        uint   `json:"lead_id"`
	AppointmentID uint   `json:"appointment_id"`
	Confirmation  string `json:"confirmation"`
}

// IngestionService turns heterogeneous webhook payloads into canonical lead
// upserts and child records. Payloads arrive with snake_case keys.
type IngestionService interface {
	VoiceCall(ctx context.Context, p normalization.Payload) (*IngestResult, error)
	AgentData(ctx context.Context, p normalization.Payload) (*IngestResult, error)
	N8nLead(ctx context.Context, p normalization.Payload) (*IngestResult, error)
	InternalQuery(ctx context.Context, p normalization.Payload) (string, error)
	InboundSMS(ctx context.Context, in InboundSMS) (*SMSReply, error)
	PublicBooking(ctx context.Context, in BookingInput) (*BookingResult, error)
}

type ingestionService struct {
	log          *logger.Logger
	leads        LeadService
	calls        CallService
	appointments AppointmentService
	audit        AuditService
	dispatcher   Dispatcher
}

func NewIngestionService(log *logger.Logger, leads LeadService, calls CallService, appointments AppointmentService, audit AuditService, dispatcher Dispatcher) IngestionService {
	return &ingestionService{
		log:          log.With("service", "IngestionService"),
		leads:        leads,
		calls:        calls,
		appointments: appointments,
		audit:        audit,
		dispatcher:   dispatcher,
	}
}

var optOutKeywords = map[string]bool{
	"STOP": true, "STOPALL": true, "UNSUBSCRIBE": true, "CANCEL": true, "END": true, "QUIT": true, "OPTOUT": true,
}

func strPtr(p normalization.Payload, keys ...string) *string {
	if !p.Has(keys...) {
		return nil
	}
	return pointers.Ptr(p.Str(keys...))
}

// enumPtr drops values outside the allowed set so an existing lead keeps its
// value and a new one falls back to defaults.
func enumPtr(v *string, valid func(string) bool) *string {
	if v == nil || !valid(strings.TrimSpace(*v)) {
		return nil
	}
	return v
}

func timePtr(p normalization.Payload, keys ...string) *time.Time {
	if s := p.Str(keys...); s != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	if secs, ok := p.Float(keys...); ok && secs > 0 {
		t := time.Unix(int64(secs), 0).UTC()
		return &t
	}
	return nil
}

// leadFieldsFromPayload maps every alias senders use onto LeadFields.
// Invalid emails and out-of-enum license goals or sources are dropped rather
// than failing the delivery.
func leadFieldsFromPayload(p normalization.Payload) LeadFields {
	f := LeadFields{
		FirstName:          strPtr(p, "first_name", "firstname"),
		LastName:           strPtr(p, "last_name", "lastname"),
		Email:              strPtr(p, "email", "email_address"),
		LicenseGoal:        strPtr(p, "license_goal", "license_type", "license"),
		Source:             strPtr(p, "source", "lead_source"),
		PainPoints:         strPtr(p, "pain_points"),
		EmploymentStatus:   strPtr(p, "employment_status"),
		UrgencyLevel:       strPtr(p, "urgency_level", "urgency"),
		PaymentPreference:  strPtr(p, "payment_preference"),
		PaymentStatus:      strPtr(p, "payment_status"),
		ConfirmationNumber: strPtr(p, "confirmation_number"),
		AgentName:          strPtr(p, "agent_name"),
		Supervisor:         strPtr(p, "supervisor"),
		CallSummary:        strPtr(p, "call_summary", "summary"),
		CallTimestamp:      timePtr(p, "call_timestamp", "start_time_unix_secs"),
		ConversationID:     strPtr(p, "conversation_id"),
		Notes:              strPtr(p, "notes"),
	}
	if f.FirstName == nil && f.LastName == nil {
		if full := p.Str("name", "full_name", "caller_name"); full != "" {
			first, last := normalization.SplitName(full)
			f.FirstName = &first
			if last != "" {
				f.LastName = &last
			}
		}
	}
	if f.Email != nil && !validEmail(*f.Email) {
		f.Email = nil
	}
	f.LicenseGoal = enumPtr(f.LicenseGoal, crm.IsLicenseGoal)
	f.Source = enumPtr(f.Source, crm.IsLeadSource)
	if f.PaymentStatus != nil {
		f.PaymentStatus = pointers.Ptr(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(*f.PaymentStatus), " ", "_")))
	}
	return f
}

func phoneFrom(p normalization.Payload) string {
	return p.Str("phone", "phone_number", "caller_phone", "from", "external_number")
}

func (s *ingestionService) VoiceCall(ctx context.Context, p normalization.Payload) (*IngestResult, error) {
	phone := phoneFrom(p)
	f := leadFieldsFromPayload(p)
	f.OnCreate = &LeadFields{Source: pointers.Ptr(crm.SourceVoiceAgent)}
	intent := p.Str("intent", "call_intent", "lead_intent")
	ev := lifecycle.VoiceCall(intent)

	up, err := s.leads.Upsert(ctx, phone, f, &ev)
	if err != nil {
		return nil, err
	}
	res := &IngestResult{
		LeadID:        up.Lead.ID,
		Created:       up.Created,
		Status:        up.Lead.Status,
		Notifications: up.Notifications,
	}

	if callID := p.Str("call_id", "conversation_id", "call_sid"); callID != "" {
		conf, _ := p.Float("agent_confidence", "confidence")
		dur, _ := p.Int("duration", "duration_seconds", "call_duration")
		rec, created, err := s.calls.Record(ctx, CallRecordInput{
			LeadID:          up.Lead.ID,
			CallID:          callID,
			Transcript:      transcriptText(p),
			Summary:         p.Str("call_summary", "summary"),
			Sentiment:       p.Str("sentiment"),
			DurationSeconds: dur,
			Intent:          intent,
			AgentConfidence: conf,
		})
		if err != nil {
			return nil, err
		}
		res.CallRecordID, res.Duplicate = rec.ID, !created
	}

	// A caller who paid during the call moves straight from qualified to
	// enrolled with an auto-created enrollment.
	if up.Lead.PaymentStatus == crm.LeadPaid && up.Lead.Status == crm.LeadStatusQualified {
		paid, err := s.leads.ApplyEvent(ctx, up.Lead.ID, lifecycle.PaymentConfirmed())
		if err != nil {
			return nil, err
		}
		res.Status = paid.Lead.Status
		res.Notifications = append(res.Notifications, paid.Notifications...)
		if n := len(paid.Lead.Enrollments); n > 0 {
			res.EnrollmentID = paid.Lead.Enrollments[n-1].ID
		}
	}
	return res, nil
}

// transcriptText flattens ElevenLabs transcript turns into "role: message" lines.
func transcriptText(p normalization.Payload) string {
	switch t := p["transcript"].(type) {
	case string:
		return t
	case []any:
		var b strings.Builder
		for _, turn := range t {
			m, ok := turn.(map[string]any)
			if !ok {
				continue
			}
			msg, _ := m["message"].(string)
			if strings.TrimSpace(msg) == "" {
				continue
			}
			role, _ := m["role"].(string)
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s: %s", role, strings.TrimSpace(msg))
		}
		return b.String()
	}
	return ""
}

func (s *ingestionService) AgentData(ctx context.Context, p normalization.Payload) (*IngestResult, error) {
	res := &IngestResult{}
	var leadID *uint
	if phone := phoneFrom(p); phone != "" {
		up, err := s.leads.Upsert(ctx, phone, leadFieldsFromPayload(p), nil)
		if err != nil {
			return nil, err
		}
		res.LeadID, res.Created, res.Status = up.Lead.ID, up.Created, up.Lead.Status
		leadID = &up.Lead.ID
	}

	agent := p.Str("agent_name", "agent_id")
	if agent == "" {
		agent = crm.DefaultAgentName
	}
	conversationID := p.Str("conversation_id")
	metrics, _ := p["metrics"].(map[string]any)
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([]*crm.AgentMetric, 0, len(names))
	for _, name := range names {
		var (
			value float64
			meta  []byte
		)
		switch v := metrics[name].(type) {
		case float64:
			value = v
		case bool:
			if v {
				value = 1
			}
		case map[string]any:
			if f, ok := normalization.Payload(v).Float("value"); ok {
				value = f
			}
			meta, _ = json.Marshal(v)
		default:
			meta, _ = json.Marshal(map[string]any{"value": v})
		}
		rows = append(rows, &crm.AgentMetric{
			AgentName:      agent,
			ConversationID: conversationID,
			LeadID:         leadID,
			Metric:         name,
			Value:          value,
			Metadata:       meta,
		})
	}
	if len(rows) > 0 {
		if r := s.audit.RecordAgentMetrics(ctx, rows); !r.OK {
			return nil, internal("agent_metrics_failed", fmt.Errorf("%s", r.Reason))
		}
	}
	res.Metrics = len(rows)
	return res, nil
}

func (s *ingestionService) N8nLead(ctx context.Context, p normalization.Payload) (*IngestResult, error) {
	if sessionID := p.Str("session_id"); sessionID != "" {
		if msg, ok := p["message"]; ok {
			raw, _ := json.Marshal(msg)
			if r := s.audit.AppendChatHistory(ctx, sessionID, raw); !r.OK {
				s.log.Warn("n8n chat history not stored", "session_id", sessionID, "reason", r.Reason)
			}
		}
	}
	phone := phoneFrom(p)
	if phone == "" {
		if p.Has("session_id") {
			return &IngestResult{}, nil
		}
		return nil, badRequest("invalid_phone", fmt.Errorf("phone number required"))
	}
	f := leadFieldsFromPayload(p)
	f.OnCreate = &LeadFields{Source: pointers.Ptr(crm.SourceN8n)}
	f.Status = strPtr(p, "status", "lead_status")

	var ev *lifecycle.Event
	if intent := p.Str("intent"); intent != "" && f.Status == nil {
		e := lifecycle.VoiceCall(intent)
		ev = &e
	}
	up, err := s.leads.Upsert(ctx, phone, f, ev)
	if err != nil {
		return nil, err
	}
	return &IngestResult{
		LeadID:        up.Lead.ID,
		Created:       up.Created,
		Status:        up.Lead.Status,
		Notifications: up.Notifications,
	}, nil
}

func (s *ingestionService) InternalQuery(ctx context.Context, p normalization.Payload) (string, error) {
	q := p.Str("query", "question", "q")
	if q == "" {
		return "", badRequest("invalid_query", fmt.Errorf("query required"))
	}
	return s.dispatcher.Dispatch(ctx, q), nil
}

func (s *ingestionService) InboundSMS(ctx context.Context, in InboundSMS) (*SMSReply, error) {
	keyword := strings.ToUpper(strings.Join(strings.Fields(in.Body), ""))
	if optOutKeywords[keyword] {
		ev := lifecycle.OptOutRequested()
		up, err := s.leads.Upsert(ctx, in.From, LeadFields{}, &ev)
		if err != nil {
			return nil, err
		}
		return &SMSReply{
			LeadID:  up.Lead.ID,
			OptOut:  true,
			Message: "You have been unsubscribed and will not receive further messages.",
		}, nil
	}
	up, err := s.leads.Upsert(ctx, in.From, LeadFields{
		Notes:    pointers.Ptr(strings.TrimSpace(in.Body)),
		OnCreate: &LeadFields{Source: pointers.Ptr(crm.SourceSMS)},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &SMSReply{
		LeadID:  up.Lead.ID,
		Message: "Thanks for your message! An enrollment advisor will get back to you shortly.",
	}, nil
}

func (s *ingestionService) PublicBooking(ctx context.Context, in BookingInput) (*BookingResult, error) {
	if in.DateTime.IsZero() {
		return nil, badRequest("invalid_date_time", fmt.Errorf("date_time required"))
	}
	first, last := normalization.SplitName(in.Name)
	f := LeadFields{}
	if first != "" {
		f.FirstName = &first
	}
	if last != "" {
		f.LastName = &last
	}
	if e := strings.TrimSpace(in.Email); e != "" {
		f.Email = &e
	}
	if lg := strings.TrimSpace(in.LicenseGoal); lg != "" {
		f.LicenseGoal = &lg
	}
	f.OnCreate = &LeadFields{Source: pointers.Ptr(crm.SourceWebsite)}

	up, err := s.leads.Upsert(ctx, in.Phone, f, nil)
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.Create(ctx, AppointmentInput{
		LeadID:   up.Lead.ID,
		DateTime: in.DateTime,
		Type:     in.Type,
		Notes:    in.Notes,
		Status:   crm.AppointmentScheduled,
	})
	if err != nil {
		return nil, err
	}
	return &BookingResult{
		LeadID:        up.Lead.ID,
		AppointmentID: a.ID,
		Confirmation:  fmt.Sprintf("APT-%06d", a.ID),
	}, nil
}
