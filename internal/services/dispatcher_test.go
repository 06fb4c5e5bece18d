package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
)

func TestDispatchFixedAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tests := []struct {
		query string
		want  string
	}{
		{"lead:99999", AnswerLeadNotFound},
		{"not_a_real_query", AnswerUnknownQuery},
		{"QUALIFIED_LEADS", AnswerUnknownQuery},
		{" qualified_leads ", AnswerUnknownQuery},
		{"", AnswerUnknownQuery},
		{"lead:abc", AnswerInvalidLeadID},
		{"lead:", AnswerInvalidLeadID},
		{"lead:-4", AnswerInvalidLeadID},
	}
	for _, tc := range tests {
		if got := h.dispatcher.Dispatch(ctx, tc.query); got != tc.want {
			t.Errorf("Dispatch(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestDispatchQualifiedLeads(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusQualified })
	}
	testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusContacted })

	got := h.dispatcher.Dispatch(context.Background(), QueryQualifiedLeads)
	if !strings.Contains(got, "3") {
		t.Fatalf("answer %q does not mention 3", got)
	}
}

func TestDispatchLeadSummary(t *testing.T) {
	h := newHarness(t)
	lead := testutil.SeedLead(t, h.db, func(l *crm.Lead) {
		l.FirstName, l.LastName = "Dana", "Ortiz"
		l.Status = crm.LeadStatusQualified
		l.LicenseGoal = crm.License240
	})
	got := h.dispatcher.Dispatch(context.Background(), fmt.Sprintf("lead:%d", lead.ID))
	for _, want := range []string{"Dana Ortiz", crm.LeadStatusQualified, crm.License240, crm.SourceWebsite} {
		if !strings.Contains(got, want) {
			t.Fatalf("answer %q missing %q", got, want)
		}
	}
}

func TestDispatchEveryNamedQueryAnswers(t *testing.T) {
	h := newHarness(t)
	lead := testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusEnrolled })
	testutil.SeedEnrollment(t, h.db, lead.ID)
	testutil.SeedPayment(t, h.db, lead.ID, 300, crm.PaymentCompleted, h.clk.Now())
	testutil.SeedCallRecord(t, h.db, lead.ID, "call-1", func(c *crm.CallRecord) { c.Sentiment = crm.SentimentPositive })

	ctx := context.Background()
	for _, q := range QueryNames {
		got := h.dispatcher.Dispatch(ctx, q)
		if got == "" || got == AnswerUnknownQuery || got == AnswerTemporaryFailed {
			t.Errorf("Dispatch(%q) = %q", q, got)
		}
	}
	if got := h.dispatcher.Dispatch(ctx, QueryRevenueToday); !strings.Contains(got, "$300.00") {
		t.Fatalf("revenue_today = %q", got)
	}
	if got := h.dispatcher.Dispatch(ctx, QueryConversionRate); !strings.Contains(got, "100.0%") {
		t.Fatalf("conversion_rate = %q", got)
	}
}

func TestDispatchCachesAnswers(t *testing.T) {
	h := newHarness(t)
	d := NewDispatcher(testutil.Logger(t), h.repos.Analytics, h.repos.Lead, h.cal, h.memo, time.Minute)
	ctx := context.Background()

	testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusQualified })
	first := d.Dispatch(ctx, QueryQualifiedLeads)
	testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusQualified })
	if again := d.Dispatch(ctx, QueryQualifiedLeads); again != first {
		t.Fatalf("expected cached answer %q, got %q", first, again)
	}
	h.clk.Advance(2 * time.Minute)
	if fresh := d.Dispatch(ctx, QueryQualifiedLeads); !strings.Contains(fresh, "2") {
		t.Fatalf("expected refreshed answer, got %q", fresh)
	}
}
