package services

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/pointers"
)

func TestUpsertAppliesDefaultsOnCreate(t *testing.T) {
	h := newHarness(t)
	res, err := h.leads.Upsert(context.Background(), "(555) 010-0001", LeadFields{}, nil)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !res.Created {
		t.Fatalf("expected created")
	}
	got := h.lead(t, res.Lead.ID)
	if got.Phone != "+15550100001" {
		t.Fatalf("phone not normalized: %q", got.Phone)
	}
	if got.FirstName != crm.UnknownName || got.LastName != crm.UnknownName {
		t.Fatalf("names not defaulted: %q %q", got.FirstName, got.LastName)
	}
	if got.Email != "lead-15550100001@noemail.local" {
		t.Fatalf("email placeholder: %q", got.Email)
	}
	if got.LicenseGoal != crm.DefaultLicenseGoal || got.Status != crm.LeadStatusNew || got.PaymentStatus != crm.LeadNotPaid {
		t.Fatalf("defaults: %+v", got)
	}
	if got.AgentName != crm.DefaultAgentName || got.Supervisor != crm.DefaultSupervisor {
		t.Fatalf("placeholders: %+v", got)
	}
}

func TestUpsertDedupesByPhone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first, err := h.leads.Upsert(ctx, "555-010-0002", LeadFields{FirstName: pointers.Ptr("Ana")}, nil)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := h.leads.Upsert(ctx, "+1 (555) 010 0002", LeadFields{LastName: pointers.Ptr("Reyes"), Email: pointers.Ptr("ana@example.com")}, nil)
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if second.Created || second.Lead.ID != first.Lead.ID {
		t.Fatalf("expected update of lead %d, got %+v", first.Lead.ID, second)
	}
	if n := h.countLeads(t); n != 1 {
		t.Fatalf("expected 1 lead, got %d", n)
	}
	got := h.lead(t, first.Lead.ID)
	if got.FirstName != "Ana" || got.LastName != "Reyes" || got.Email != "ana@example.com" {
		t.Fatalf("partial update lost fields: %+v", got)
	}
}

func TestUpsertConcurrentSamePhone(t *testing.T) {
	h := newHarness(t)
	var wg sync.WaitGroup
	ids := make([]uint, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.leads.Upsert(context.Background(), "5550100003", LeadFields{Notes: pointers.Ptr("delivery")}, nil)
			errs[i] = err
			if err == nil {
				ids[i] = res.Lead.ID
			}
		}(i)
	}
	wg.Wait()
	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("upsert %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("upserts diverged: %v", ids)
		}
	}
	if n := h.countLeads(t); n != 1 {
		t.Fatalf("expected 1 lead, got %d", n)
	}
}

func TestUpsertRejectsEmptyPhone(t *testing.T) {
	h := newHarness(t)
	_, err := h.leads.Upsert(context.Background(), "call me", LeadFields{}, nil)
	if apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	_, err = h.leads.Upsert(context.Background(), "5550100004", LeadFields{Email: pointers.Ptr("not-an-email")}, nil)
	if apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %v", err)
	}
}

func TestUpsertRejectsOutOfEnumLicenseAndSource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.leads.Upsert(ctx, "5550100009", LeadFields{LicenseGoal: pointers.Ptr("bogus")}, nil); apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for license goal, got %v", err)
	}
	if _, err := h.leads.Upsert(ctx, "5550100009", LeadFields{Source: pointers.Ptr("nonsense")}, nil); apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for source, got %v", err)
	}
	if n := h.countLeads(t); n != 0 {
		t.Fatalf("rejected upserts stored %d leads", n)
	}
	res, err := h.leads.Upsert(ctx, "5550100009", LeadFields{LicenseGoal: pointers.Ptr(crm.License214), Source: pointers.Ptr(crm.SourceReferral)}, nil)
	if err != nil || res.Lead.LicenseGoal != crm.License214 || res.Lead.Source != crm.SourceReferral {
		t.Fatalf("valid enums: %+v %v", res, err)
	}
}

func TestVoiceCallInterestedQualifiesAndNotifies(t *testing.T) {
	h := newHarness(t)
	ev := lifecycle.VoiceCall("interested")
	res, err := h.leads.Upsert(context.Background(), "5550100005", LeadFields{}, &ev)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got := h.lead(t, res.Lead.ID)
	if got.Status != crm.LeadStatusQualified || got.CallAttempts != 1 {
		t.Fatalf("unexpected lead %+v", got)
	}
	if n, _ := h.notifier.count(); n != 1 {
		t.Fatalf("expected 1 notification, got %d", n)
	}
	if len(res.Notifications) != 1 || !res.Notifications[0].OK {
		t.Fatalf("notification results: %+v", res.Notifications)
	}
	hist, err := h.leads.History(context.Background(), res.Lead.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected created + voice_call history, got %+v", hist)
	}
}

func TestManualStatusOverridesWithoutNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.leads.Upsert(ctx, "5550100006", LeadFields{}, nil)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	res, err := h.leads.Update(ctx, created.Lead.ID, nil, LeadFields{Status: pointers.Ptr(crm.LeadStatusEnrolled)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !res.Transition.Forced || res.Lead.Status != crm.LeadStatusEnrolled {
		t.Fatalf("unexpected transition %+v", res.Transition)
	}
	if n, _ := h.notifier.count(); n != 0 {
		t.Fatalf("forced status must not notify, got %d", n)
	}

	// Manual writes always win, even against an automatic event in the same call.
	ev := lifecycle.VoiceCall("interested")
	res, err = h.leads.Upsert(ctx, "5550100006", LeadFields{Status: pointers.Ptr("hot_lead")}, &ev)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got := h.lead(t, res.Lead.ID); got.Status != crm.LeadStatusHotLead {
		t.Fatalf("expected hot_lead, got %q", got.Status)
	}
}

func TestUpdatePhoneConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, _ := h.leads.Upsert(ctx, "5550100007", LeadFields{}, nil)
	if _, err := h.leads.Upsert(ctx, "5550100008", LeadFields{}, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	_, err := h.leads.Update(ctx, a.Lead.ID, pointers.Ptr("555 010 0008"), LeadFields{})
	if apiStatus(err) != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestGetMissingLead(t *testing.T) {
	h := newHarness(t)
	_, err := h.leads.Get(context.Background(), 4242)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = h.leads.ApplyEvent(context.Background(), 4242, lifecycle.OptOutRequested())
	if apiStatus(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}
