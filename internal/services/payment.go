package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/licensing-crm-backend/internal/clients/stripe"
	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/licensing-crm-backend/internal/pkg/errors"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
)

type PaymentInput struct {
	LeadID     uint
	PlanChosen string
	Amount     float64
	Currency   string
}

type PaymentCreated struct {
	Payment      *crm.Payment `json:"payment"`
	ClientSecret string       `json:"client_secret,omitempty"`
}

type StripeEventResult struct {
	EventType string       `json:"event_type"`
	Handled   bool         `json:"handled"`
	Payment   *crm.Payment `json:"payment,omitempty"`
}

type PaymentService interface {
	// Create records a pending payment. With a payment processor configured it
	// also opens a PaymentIntent whose id becomes the transaction id.
	Create(ctx context.Context, in PaymentInput) (*PaymentCreated, error)
	Get(ctx context.Context, id uint) (*crm.Payment, error)
	List(ctx context.Context, f repos.PaymentFilter) ([]*crm.Payment, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) (*crm.Payment, error)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) (*StripeEventResult, error)
}

type paymentService struct {
	log      *logger.Logger
	tx       aggregates.TxRunner
	leads    repos.LeadRepo
	payments repos.PaymentRepo
	leadSvc  LeadService
	notifier Notifier
	stripe   stripe.Client
	emitter  realtime.Emitter
}

// NewPaymentService accepts a nil stripe client; payments are then tracked
// without a processor.
func NewPaymentService(
	log *logger.Logger,
	tx aggregates.TxRunner,
	leads repos.LeadRepo,
	payments repos.PaymentRepo,
	leadSvc LeadService,
	notifier Notifier,
	stripeClient stripe.Client,
	emitter realtime.Emitter,
) PaymentService {
	if emitter == nil {
		emitter = realtime.NopEmitter{}
	}
	return &paymentService{
		log:      log.With("service", "PaymentService"),
		tx:       tx,
		leads:    leads,
		payments: payments,
		leadSvc:  leadSvc,
		notifier: notifier,
		stripe:   stripeClient,
		emitter:  emitter,
	}
}

var paymentTransitions = map[string][]string{
	crm.PaymentPending:    {crm.PaymentProcessing, crm.PaymentCompleted, crm.PaymentFailed, crm.PaymentRefunded},
	crm.PaymentProcessing: {crm.PaymentCompleted, crm.PaymentFailed},
	crm.PaymentCompleted:  {crm.PaymentRefunded},
	crm.PaymentFailed:     {crm.PaymentPending},
}

func paymentTransitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *paymentService) Create(ctx context.Context, in PaymentInput) (*PaymentCreated, error) {
	if in.LeadID == 0 {
		return nil, badRequest("invalid_lead_id", fmt.Errorf("lead_id required"))
	}
	if in.Amount <= 0 {
		return nil, badRequest("invalid_amount", fmt.Errorf("amount must be positive"))
	}
	lead, err := s.leads.GetByID(dbctx.From(ctx), in.LeadID)
	if err != nil {
		return nil, internal("lead_lookup_failed", err)
	}
	if lead == nil {
		return nil, notFound("lead_not_found", "lead")
	}
	p := &crm.Payment{
		LeadID:     lead.ID,
		PlanChosen: strings.TrimSpace(in.PlanChosen),
		Amount:     in.Amount,
		Currency:   strings.ToLower(strings.TrimSpace(in.Currency)),
		Status:     crm.PaymentPending,
	}
	if p.PlanChosen == "" {
		p.PlanChosen = crm.PlanFullPayment
	}
	if p.Currency == "" {
		p.Currency = "usd"
	}
	if err := s.payments.Create(dbctx.From(ctx), p); err != nil {
		return nil, internal("payment_create_failed", err)
	}
	out := &PaymentCreated{Payment: p}

	if s.stripe != nil {
		pi, err := s.stripe.CreatePaymentIntent(ctx, stripe.PaymentIntentRequest{
			Amount:        p.Amount,
			Currency:      p.Currency,
			CustomerEmail: lead.Email,
			Description:   fmt.Sprintf("%s license course (%s)", lead.LicenseGoal, p.PlanChosen),
			Metadata: map[string]string{
				stripe.MetadataPaymentID: strconv.FormatUint(uint64(p.ID), 10),
				stripe.MetadataLeadID:    strconv.FormatUint(uint64(lead.ID), 10),
			},
		})
		switch {
		case errors.Is(err, pkgerrors.ErrNotConfigured):
		case err != nil:
			// The pending row stays; the processor can be retried from the dashboard.
			s.log.Warn("payment intent creation failed", "payment_id", p.ID, "error", err)
		default:
			p.TransactionID = pi.ID
			out.ClientSecret = pi.ClientSecret
			if err := s.payments.UpdateFields(dbctx.From(ctx), p.ID, map[string]interface{}{"transaction_id": pi.ID}); err != nil {
				return nil, internal("payment_update_failed", err)
			}
		}
	}
	s.emitter.Emit(ctx, realtime.SSEEventPaymentUpdated, p)
	return out, nil
}

func (s *paymentService) Get(ctx context.Context, id uint) (*crm.Payment, error) {
	p, err := s.payments.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return nil, internal("payment_lookup_failed", err)
	}
	if p == nil {
		return nil, notFound("payment_not_found", "payment")
	}
	return p, nil
}

func (s *paymentService) List(ctx context.Context, f repos.PaymentFilter) ([]*crm.Payment, int64, error) {
	out, total, err := s.payments.List(dbctx.From(ctx), f)
	if err != nil {
		return nil, 0, internal("payment_list_failed", err)
	}
	return out, total, nil
}

func (s *paymentService) UpdateStatus(ctx context.Context, id uint, status string) (*crm.Payment, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, known := paymentTransitions[status]; !known && status != crm.PaymentRefunded {
		return nil, badRequest("invalid_payment_status", fmt.Errorf("unknown payment status %q", status))
	}
	var (
		p    *crm.Payment
		lead *crm.Lead
		t    lifecycle.Transition
	)
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		p, err = s.payments.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("payment_not_found", "payment")
		}
		if p.Status == status {
			return nil
		}
		if !paymentTransitionAllowed(p.Status, status) {
			return conflict("invalid_payment_transition", fmt.Errorf("payment %d cannot move from %s to %s", p.ID, p.Status, status))
		}
		if err := s.payments.UpdateFields(dbc, p.ID, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		p.Status = status
		if status != crm.PaymentCompleted {
			return nil
		}
		lead, err = s.leads.GetByID(dbc, p.LeadID)
		if err != nil {
			return err
		}
		if lead == nil {
			return notFound("lead_not_found", "lead")
		}
		if err := s.leads.UpdateFields(dbc, lead.ID, map[string]interface{}{"payment_status": crm.LeadPaid}); err != nil {
			return err
		}
		lead.PaymentStatus = crm.LeadPaid
		t, err = s.leadSvc.TransitionTx(dbc, lead, lifecycle.PaymentConfirmed())
		return err
	})
	if err != nil {
		if isAPIErr(err) {
			return nil, err
		}
		return nil, internal("payment_update_failed", err)
	}

	s.emitter.Emit(ctx, realtime.SSEEventPaymentUpdated, p)
	if lead != nil {
		// A lifecycle notification already carries the lead; only send the
		// payment notice when the status did not move.
		if results := s.leadSvc.Announce(ctx, lead, t); len(results) == 0 && s.notifier != nil {
			logNotifyResults(s.log, lead.ID, s.notifier.PaymentReceived(ctx, lead, p))
		}
	}
	return p, nil
}

func (s *paymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) (*StripeEventResult, error) {
	if s.stripe == nil {
		return nil, apiNotConfigured("stripe")
	}
	ev, err := s.stripe.ParseWebhook(payload, signature)
	switch {
	case errors.Is(err, pkgerrors.ErrNotConfigured):
		return nil, apiNotConfigured("stripe")
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return nil, badRequest("invalid_signature", err)
	case err != nil:
		return nil, badRequest("invalid_event", err)
	}

	res := &StripeEventResult{EventType: ev.Type}
	var target string
	switch ev.Type {
	case stripe.EventPaymentIntentSucceeded:
		target = crm.PaymentCompleted
	case stripe.EventPaymentIntentFailed, stripe.EventPaymentIntentCanceled:
		target = crm.PaymentFailed
	case stripe.EventChargeRefunded:
		target = crm.PaymentRefunded
	default:
		s.log.Debug("ignoring stripe event", "type", ev.Type, "event_id", ev.ID)
		return res, nil
	}

	p, err := s.paymentForEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	if p == nil {
		s.log.Warn("stripe event for unknown payment", "type", ev.Type, "payment_intent", ev.PaymentIntentID)
		return res, nil
	}
	updated, err := s.UpdateStatus(ctx, p.ID, target)
	if err != nil {
		return nil, err
	}
	res.Handled, res.Payment = true, updated
	return res, nil
}

func (s *paymentService) paymentForEvent(ctx context.Context, ev *stripe.WebhookEvent) (*crm.Payment, error) {
	if ev.PaymentIntentID != "" {
		p, err := s.payments.GetByTransactionID(dbctx.From(ctx), ev.PaymentIntentID)
		if err != nil {
			return nil, internal("payment_lookup_failed", err)
		}
		if p != nil {
			return p, nil
		}
	}
	if raw := ev.Metadata[stripe.MetadataPaymentID]; raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, nil
		}
		p, err := s.payments.GetByID(dbctx.From(ctx), uint(id))
		if err != nil {
			return nil, internal("payment_lookup_failed", err)
		}
		return p, nil
	}
	return nil, nil
}
