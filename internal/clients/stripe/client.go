package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v80"
	stripeclient "github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/envutil"
	pkgerrors "github.com/yungbote/licensing-crm-backend/internal/pkg/errors"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventPaymentIntentCanceled  = "payment_intent.canceled"
	EventChargeRefunded         = "charge.refunded"

	// MetadataPaymentID ties a PaymentIntent back to a CRM payment row.
	MetadataPaymentID = "crm_payment_id"
	MetadataLeadID    = "crm_lead_id"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		SecretKey:     envutil.String("STRIPE_SECRET_KEY", "", log),
		WebhookSecret: envutil.String("STRIPE_WEBHOOK_SECRET", "", log),
		Currency:      envutil.String("STRIPE_CURRENCY", "usd", log),
	}
}

type PaymentIntentRequest struct {
	Amount        float64
	Currency      string
	CustomerEmail string
	Description   string
	Metadata      map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// WebhookEvent is the subset of a Stripe event the CRM acts on.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	Status          string
	AmountCents     int64
	Metadata        map[string]string
}

type Client interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type client struct {
	log *logger.Logger
	cfg Config
	api *stripeclient.API
}

// New accepts a partial config: without a secret key payment intents return
// ErrNotConfigured, without a webhook secret so does ParseWebhook.
func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.WebhookSecret = strings.TrimSpace(cfg.WebhookSecret)
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	c := &client{log: log.With("client", "StripeClient"), cfg: cfg}
	if cfg.SecretKey != "" {
		c.api = stripeclient.New(cfg.SecretKey, nil)
	}
	return c, nil
}

// ToCents converts a dollar amount to the smallest currency unit.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (c *client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	if c.api == nil {
		return nil, fmt.Errorf("stripe: %w", pkgerrors.ErrNotConfigured)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("stripe: amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = c.cfg.Currency
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:             stripeapi.Int64(ToCents(req.Amount)),
		Currency:           stripeapi.String(currency),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripeapi.String(req.CustomerEmail)
	}
	if req.Description != "" {
		params.Description = stripeapi.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	c.log.Info("payment intent created", "payment_intent", pi.ID, "amount_cents", pi.Amount)
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (c *client) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook: %w", pkgerrors.ErrNotConfigured)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe webhook: %w", pkgerrors.ErrUnauthorized)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}
	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe webhook decode: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.Status = string(pi.Status)
		out.AmountCents = pi.AmountReceived
		if out.AmountCents == 0 {
			out.AmountCents = pi.Amount
		}
		out.Metadata = pi.Metadata
	case out.Type == EventChargeRefunded:
		var ch stripeapi.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("stripe webhook decode: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		out.Status = "refunded"
		out.AmountCents = ch.AmountRefunded
		out.Metadata = ch.Metadata
	}
	return out, nil
}
