package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/yungbote/licensing-crm-backend/internal/clients/stripe"
	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
)

func TestCompletingPaymentEnrollsQualifiedLead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead := testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusQualified })

	created, err := h.payments.Create(ctx, PaymentInput{LeadID: lead.ID, Amount: 500, PlanChosen: crm.PlanPaymentPlan})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Payment.Status != crm.PaymentPending || created.ClientSecret != "" {
		t.Fatalf("unexpected payment %+v", created)
	}

	p, err := h.payments.UpdateStatus(ctx, created.Payment.ID, crm.PaymentCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if p.Status != crm.PaymentCompleted {
		t.Fatalf("status = %q", p.Status)
	}
	got := h.lead(t, lead.ID)
	if got.Status != crm.LeadStatusEnrolled || got.PaymentStatus != crm.LeadPaid {
		t.Fatalf("lead not enrolled/paid: %+v", got)
	}
	if n, _ := h.repos.Enrollment.CountByLead(ctxDB(), lead.ID); n != 1 {
		t.Fatalf("expected auto-created enrollment, got %d", n)
	}
	transitions, payments := h.notifier.count()
	if transitions != 1 || payments != 0 {
		t.Fatalf("notifications: transitions=%d payments=%d", transitions, payments)
	}

	// Repeating the same status is a no-op.
	if _, err := h.payments.UpdateStatus(ctx, created.Payment.ID, crm.PaymentCompleted); err != nil {
		t.Fatalf("idempotent UpdateStatus: %v", err)
	}
	if n, _ := h.repos.Enrollment.CountByLead(ctxDB(), lead.ID); n != 1 {
		t.Fatalf("enrollment duplicated: %d", n)
	}
}

func TestPaymentOnContactedLeadOnlyNotifiesPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead := testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusContacted })
	created, err := h.payments.Create(ctx, PaymentInput{LeadID: lead.ID, Amount: 250})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.payments.UpdateStatus(ctx, created.Payment.ID, crm.PaymentCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got := h.lead(t, lead.ID); got.Status != crm.LeadStatusContacted || got.PaymentStatus != crm.LeadPaid {
		t.Fatalf("unexpected lead %+v", got)
	}
	if transitions, payments := h.notifier.count(); transitions != 0 || payments != 1 {
		t.Fatalf("notifications: transitions=%d payments=%d", transitions, payments)
	}
}

func TestPaymentTransitionRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead := testutil.SeedLead(t, h.db)
	created, err := h.payments.Create(ctx, PaymentInput{LeadID: lead.ID, Amount: 100})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created.Payment.ID

	if _, err := h.payments.UpdateStatus(ctx, id, "bogus"); apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if _, err := h.payments.UpdateStatus(ctx, id, crm.PaymentFailed); err != nil {
		t.Fatalf("pending->failed: %v", err)
	}
	if _, err := h.payments.UpdateStatus(ctx, id, crm.PaymentRefunded); apiStatus(err) != http.StatusConflict {
		t.Fatalf("failed->refunded: expected 409, got %v", err)
	}
	if _, err := h.payments.UpdateStatus(ctx, id, crm.PaymentPending); err != nil {
		t.Fatalf("failed->pending: %v", err)
	}
	if _, err := h.payments.Create(ctx, PaymentInput{LeadID: lead.ID, Amount: 0}); apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("zero amount: expected 400, got %v", err)
	}
}

func TestStripeWebhookCompletesPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const secret = "whsec_services_test"
	sc, err := stripe.New(testutil.Logger(t), stripe.Config{WebhookSecret: secret})
	if err != nil {
		t.Fatalf("stripe.New: %v", err)
	}
	svc := NewPaymentService(testutil.Logger(t), aggregates.NewGormTxRunner(h.db), h.repos.Lead, h.repos.Payment, h.leads, h.notifier, sc, nil)

	lead := testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusQualified })
	p := testutil.SeedPayment(t, h.db, lead.ID, 500, crm.PaymentPending, h.clk.Now(), func(p *crm.Payment) { p.TransactionID = "pi_svc_1" })

	body := []byte(`{"id":"evt_svc","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_svc_1","object":"payment_intent","status":"succeeded","amount":50000}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: body, Secret: secret})

	res, err := svc.HandleStripeWebhook(ctx, signed.Payload, signed.Header)
	if err != nil {
		t.Fatalf("HandleStripeWebhook: %v", err)
	}
	if !res.Handled || res.Payment == nil || res.Payment.ID != p.ID || res.Payment.Status != crm.PaymentCompleted {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := h.lead(t, lead.ID); got.Status != crm.LeadStatusEnrolled {
		t.Fatalf("lead status %q", got.Status)
	}

	if _, err := svc.HandleStripeWebhook(ctx, body, "t=1,v1=bad"); apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("bad signature: expected 400, got %v", err)
	}
}
