package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/normalization"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/pointers"
)

func payload(t *testing.T, raw string) normalization.Payload {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("payload: %v", err)
	}
	return normalization.NewPayload(m)
}

func TestVoiceCallCamelCasePaidCallerIsEnrolled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	body := `{
		"phoneNumber": "(555) 020-0001",
		"firstName": "Luis",
		"lastName": "Mendez",
		"email": "broken-email",
		"licenseGoal": "2-40",
		"intent": "interested",
		"callId": "conv_1",
		"sentiment": "Positive",
		"duration": 183,
		"agentConfidence": 0.92,
		"paymentStatus": "paid"
	}`
	res, err := h.ingestion.VoiceCall(ctx, payload(t, body))
	if err != nil {
		t.Fatalf("VoiceCall: %v", err)
	}
	if !res.Created || res.Status != crm.LeadStatusEnrolled || res.EnrollmentID == 0 || res.CallRecordID == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	lead := h.lead(t, res.LeadID)
	if lead.Phone != "+15550200001" || lead.LicenseGoal != crm.License240 || lead.Source != crm.SourceVoiceAgent {
		t.Fatalf("lead fields: %+v", lead)
	}
	if lead.Email != "lead-15550200001@noemail.local" {
		t.Fatalf("invalid email should fall back to placeholder, got %q", lead.Email)
	}

	// Redelivery updates the same lead and does not duplicate the call.
	again, err := h.ingestion.VoiceCall(ctx, payload(t, body))
	if err != nil {
		t.Fatalf("VoiceCall redelivery: %v", err)
	}
	if again.Created || again.LeadID != res.LeadID || !again.Duplicate || again.CallRecordID != res.CallRecordID {
		t.Fatalf("redelivery: %+v", again)
	}
	if n := h.countLeads(t); n != 1 {
		t.Fatalf("expected 1 lead, got %d", n)
	}
}

func TestVoiceCallNestedElevenLabsPayload(t *testing.T) {
	h := newHarness(t)
	body := `{
		"type": "post_call_transcription",
		"data": {
			"conversation_id": "conv_nested",
			"transcript": [{"role": "agent", "message": "Hi there"}, {"role": "user", "message": "I want my 2-15"}],
			"metadata": {"phone_call": {"external_number": "+1 555 020 0002"}, "call_duration_secs": 95},
			"analysis": {"transcript_summary": "Caller wants the 2-15 course.", "data_collection_results": {"intent": {"value": "callback_later"}}}
		}
	}`
	res, err := h.ingestion.VoiceCall(context.Background(), payload(t, body))
	if err != nil {
		t.Fatalf("VoiceCall: %v", err)
	}
	if res.Status != crm.LeadStatusContacted {
		t.Fatalf("status = %q", res.Status)
	}
	recs, _, err := h.calls.List(context.Background(), repos.CallRecordFilter{LeadID: res.LeadID})
	if err != nil || len(recs) != 1 {
		t.Fatalf("call records: %+v %v", recs, err)
	}
	if recs[0].DurationSeconds != 95 || recs[0].Summary == "" || recs[0].Transcript != "agent: Hi there\nuser: I want my 2-15" {
		t.Fatalf("call record: %+v", recs[0])
	}
}

func TestVoiceCallWithoutPhone(t *testing.T) {
	h := newHarness(t)
	_, err := h.ingestion.VoiceCall(context.Background(), payload(t, `{"intent":"interested"}`))
	if apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestInboundSMSStopOptsOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.ingestion.VoiceCall(ctx, payload(t, `{"phone":"5550200003","intent":"interested"}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	reply, err := h.ingestion.InboundSMS(ctx, InboundSMS{From: "+15550200003", Body: " stop "})
	if err != nil {
		t.Fatalf("InboundSMS: %v", err)
	}
	if !reply.OptOut {
		t.Fatalf("expected opt out: %+v", reply)
	}
	if got := h.lead(t, reply.LeadID); got.Status != crm.LeadStatusOptOut {
		t.Fatalf("status = %q", got.Status)
	}

	reply, err = h.ingestion.InboundSMS(ctx, InboundSMS{From: "+15550200004", Body: "When does the evening class start?"})
	if err != nil {
		t.Fatalf("InboundSMS: %v", err)
	}
	got := h.lead(t, reply.LeadID)
	if reply.OptOut || got.Source != crm.SourceSMS || got.Notes == "" {
		t.Fatalf("unexpected reply %+v lead %+v", reply, got)
	}
}

func TestN8nLeadStatusIsManualOverride(t *testing.T) {
	h := newHarness(t)
	res, err := h.ingestion.N8nLead(context.Background(), payload(t, `{"phone":"5550200005","name":"Kim Park","status":"qualified","session_id":"s1","message":{"type":"human","content":"hi"}}`))
	if err != nil {
		t.Fatalf("N8nLead: %v", err)
	}
	lead := h.lead(t, res.LeadID)
	if lead.Status != crm.LeadStatusQualified || lead.FirstName != "Kim" || lead.LastName != "Park" || lead.Source != crm.SourceN8n {
		t.Fatalf("lead: %+v", lead)
	}
	if n, _ := h.notifier.count(); n != 0 {
		t.Fatalf("manual status must not notify")
	}
	rows, err := h.repos.ChatHistory.ListBySession(ctxDB(), "s1", 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("chat history: %+v %v", rows, err)
	}
}

func TestAgentDataRecordsMetrics(t *testing.T) {
	h := newHarness(t)
	res, err := h.ingestion.AgentData(context.Background(), payload(t, `{"agentName":"Ava","conversationId":"c9","phone":"5550200006","metrics":{"latencyMs":420,"successful":true,"score":{"value":0.8,"reason":"ok"}}}`))
	if err != nil {
		t.Fatalf("AgentData: %v", err)
	}
	if res.Metrics != 3 || res.LeadID == 0 {
		t.Fatalf("unexpected %+v", res)
	}
	rows, err := h.repos.AgentMetric.ListByConversation(ctxDB(), "c9")
	if err != nil || len(rows) != 3 {
		t.Fatalf("metrics: %+v %v", rows, err)
	}
}

func TestInternalQuery(t *testing.T) {
	h := newHarness(t)
	got, err := h.ingestion.InternalQuery(context.Background(), payload(t, `{"query":"not_a_real_query"}`))
	if err != nil || got != AnswerUnknownQuery {
		t.Fatalf("InternalQuery = %q %v", got, err)
	}
	if _, err := h.ingestion.InternalQuery(context.Background(), payload(t, `{}`)); apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPublicBooking(t *testing.T) {
	h := newHarness(t)
	at := time.Date(2030, 1, 10, 15, 0, 0, 0, time.UTC)
	res, err := h.ingestion.PublicBooking(context.Background(), BookingInput{
		Name: "Rosa Diaz", Phone: "555 020 0007", Email: "rosa@example.com", DateTime: at, Type: crm.AppointmentConsultation,
	})
	if err != nil {
		t.Fatalf("PublicBooking: %v", err)
	}
	appt, err := h.appointments.Get(context.Background(), res.AppointmentID)
	if err != nil || appt.Status != crm.AppointmentScheduled || !appt.DateTime.Equal(at) {
		t.Fatalf("appointment: %+v %v", appt, err)
	}
	if lead := h.lead(t, res.LeadID); lead.Source != crm.SourceWebsite || lead.FirstName != "Rosa" {
		t.Fatalf("lead: %+v", lead)
	}
}

func TestWebhookDefaultSourceOnlyAppliesToNewLeads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	site, err := h.leads.Upsert(ctx, "5550300001", LeadFields{Source: pointers.Ptr(crm.SourceWebsite)}, nil)
	if err != nil {
		t.Fatalf("seed website lead: %v", err)
	}
	if _, err := h.ingestion.VoiceCall(ctx, payload(t, `{"phone":"5550300001","intent":"interested"}`)); err != nil {
		t.Fatalf("VoiceCall: %v", err)
	}
	if got := h.lead(t, site.Lead.ID).Source; got != crm.SourceWebsite {
		t.Fatalf("source after voice call = %q", got)
	}

	ref, err := h.leads.Upsert(ctx, "5550300002", LeadFields{Source: pointers.Ptr(crm.SourceReferral)}, nil)
	if err != nil {
		t.Fatalf("seed referral lead: %v", err)
	}
	if _, err := h.ingestion.N8nLead(ctx, payload(t, `{"phone":"5550300002","name":"Dee Lane"}`)); err != nil {
		t.Fatalf("N8nLead: %v", err)
	}
	if got := h.lead(t, ref.Lead.ID); got.Source != crm.SourceReferral || got.FirstName != "Dee" {
		t.Fatalf("lead after n8n: %+v", got)
	}

	if _, err := h.ingestion.InboundSMS(ctx, InboundSMS{From: "5550300001", Body: "call me back"}); err != nil {
		t.Fatalf("InboundSMS: %v", err)
	}
	if got := h.lead(t, site.Lead.ID).Source; got != crm.SourceWebsite {
		t.Fatalf("source after sms = %q", got)
	}

	// A sender that names its source still overrides it.
	if _, err := h.ingestion.N8nLead(ctx, payload(t, `{"phone":"5550300002","source":"website"}`)); err != nil {
		t.Fatalf("N8nLead explicit source: %v", err)
	}
	if got := h.lead(t, ref.Lead.ID).Source; got != crm.SourceWebsite {
		t.Fatalf("explicit source = %q", got)
	}
}

func TestWebhookDropsOutOfEnumLicenseAndSource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.ingestion.N8nLead(ctx, payload(t, `{"phone":"5550300003","license_goal":"bogus","source":"nonsense"}`))
	if err != nil {
		t.Fatalf("N8nLead: %v", err)
	}
	lead := h.lead(t, res.LeadID)
	if lead.LicenseGoal != crm.DefaultLicenseGoal || lead.Source != crm.SourceN8n {
		t.Fatalf("new lead should use defaults, got license=%q source=%q", lead.LicenseGoal, lead.Source)
	}

	if _, err := h.leads.Upsert(ctx, "5550300003", LeadFields{LicenseGoal: pointers.Ptr(crm.License240)}, nil); err != nil {
		t.Fatalf("set license: %v", err)
	}
	if _, err := h.ingestion.VoiceCall(ctx, payload(t, `{"phone":"5550300003","license_goal":"9-99"}`)); err != nil {
		t.Fatalf("VoiceCall: %v", err)
	}
	if got := h.lead(t, res.LeadID); got.LicenseGoal != crm.License240 || got.Source != crm.SourceN8n {
		t.Fatalf("existing lead changed: license=%q source=%q", got.LicenseGoal, got.Source)
	}
}
