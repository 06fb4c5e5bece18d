package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
)

func qualifiedTransition() lifecycle.Transition {
	return lifecycle.Apply(lifecycle.New, lifecycle.VoiceCall(lifecycle.IntentInterested))
}

func TestNotifierSkipsUnconfiguredChannels(t *testing.T) {
	n := NewNotifier(testutil.Logger(t), nil, nil, NotifierConfig{})
	lead := &crm.Lead{FirstName: "Ana", Phone: "+15550100001", Status: crm.LeadStatusQualified}
	res := n.LeadTransition(context.Background(), lead, qualifiedTransition())
	if len(res) != 2 {
		t.Fatalf("expected sms and email results, got %+v", res)
	}
	for _, r := range res {
		if !r.Skipped || r.OK {
			t.Fatalf("expected skipped result, got %+v", r)
		}
	}
}

func TestNotifierPaidTemplateSelection(t *testing.T) {
	sms := &recordingSMS{}
	n := NewNotifier(testutil.Logger(t), sms, nil, NotifierConfig{SMSTo: []string{"+15550109999"}})
	lead := &crm.Lead{
		FirstName: "Ana", LastName: "Ruiz", Phone: "+15550100001",
		Status: crm.LeadStatusQualified, LicenseGoal: crm.License215, Source: crm.SourceVoiceAgent,
		PaymentStatus: crm.LeadNotPaid,
	}
	n.LeadTransition(context.Background(), lead, qualifiedTransition())
	lead.PaymentStatus = crm.LeadPaid
	lead.Status = crm.LeadStatusEnrolled
	n.LeadTransition(context.Background(), lead, lifecycle.Apply(lifecycle.Qualified, lifecycle.PaymentConfirmed()))

	if len(sms.sent) != 2 {
		t.Fatalf("expected 2 messages, got %v", sms.sent)
	}
	if !strings.HasPrefix(sms.sent[0], "+15550109999|NOT PAID: Ana Ruiz (+15550100001) is now qualified") {
		t.Fatalf("unexpected not-paid body %q", sms.sent[0])
	}
	if !strings.HasPrefix(sms.sent[1], "+15550109999|PAID: Ana Ruiz (+15550100001) is now enrolled") {
		t.Fatalf("unexpected paid body %q", sms.sent[1])
	}
}

func TestNotifierReportsSendFailure(t *testing.T) {
	sms := &recordingSMS{err: errors.New("twilio down")}
	n := NewNotifier(testutil.Logger(t), sms, nil, NotifierConfig{SMSTo: []string{"+15550109999"}})
	res := n.PaymentReceived(context.Background(), &crm.Lead{FirstName: "Ana"}, &crm.Payment{Amount: 250, PlanChosen: crm.PlanFullPayment})
	if res[0].OK || res[0].Skipped || res[0].Reason != "twilio down" {
		t.Fatalf("unexpected result %+v", res[0])
	}
}

func TestRenderTemplate(t *testing.T) {
	lead := &crm.Lead{FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", Status: crm.LeadStatusEnrolled}
	got := renderTemplate("{first_name}/{name}/{email}/{status}/{from_status}/{unknown}", lead, map[string]string{"{from_status}": "qualified"})
	if want := "Ana/Ana Ruiz/ana@example.com/enrolled/qualified/{unknown}"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
