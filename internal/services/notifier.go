package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/clients/email"
	"github.com/yungbote/licensing-crm-backend/internal/clients/twilio"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// NotifyResult is the outcome of one delivery attempt. Notifications are
// best-effort; callers log results and never roll back on failure.
type NotifyResult struct {
	Channel string `json:"channel"`
	To      string `json:"to,omitempty"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// SMSSender is satisfied by twilio.Client.
type SMSSender interface {
	SendSMS(ctx context.Context, to string, body string) (*twilio.Message, error)
}

type Notifier interface {
	LeadTransition(ctx context.Context, lead *crm.Lead, t lifecycle.Transition) []NotifyResult
	PaymentReceived(ctx context.Context, lead *crm.Lead, p *crm.Payment) []NotifyResult
}

type NotifierConfig struct {
	SMSTo   []string `yaml:"sms_to"`
	EmailTo []string `yaml:"email_to"`
	// Templates accept {name} {first_name} {phone} {email} {status} {from_status}
	// {license} {source} {payment_status} {amount} {plan}.
	PaidTemplate    string        `yaml:"paid_template"`
	NotPaidTemplate string        `yaml:"not_paid_template"`
	PaymentTemplate string        `yaml:"payment_template"`
	Timeout         time.Duration `yaml:"timeout"`
}

const (
	defaultPaidTemplate    = "PAID: {name} ({phone}) is now {status} for the {license} license. Source: {source}."
	defaultNotPaidTemplate = "NOT PAID: {name} ({phone}) is now {status} for the {license} license. Source: {source}."
	defaultPaymentTemplate = "Payment received: {name} ({phone}) paid ${amount} ({plan})."
)

type notifier struct {
	log   *logger.Logger
	sms   SMSSender
	email email.Sender
	cfg   NotifierConfig
}

// NewNotifier accepts nil senders; the corresponding channel reports skipped.
func NewNotifier(log *logger.Logger, sms SMSSender, mail email.Sender, cfg NotifierConfig) Notifier {
	if cfg.PaidTemplate == "" {
		cfg.PaidTemplate = defaultPaidTemplate
	}
	if cfg.NotPaidTemplate == "" {
		cfg.NotPaidTemplate = defaultNotPaidTemplate
	}
	if cfg.PaymentTemplate == "" {
		cfg.PaymentTemplate = defaultPaymentTemplate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &notifier{
		log:   log.With("service", "Notifier"),
		sms:   sms,
		email: mail,
		cfg:   cfg,
	}
}

func (n *notifier) LeadTransition(ctx context.Context, lead *crm.Lead, t lifecycle.Transition) []NotifyResult {
	if lead == nil {
		return nil
	}
	tmpl := n.cfg.NotPaidTemplate
	if strings.EqualFold(lead.PaymentStatus, crm.LeadPaid) {
		tmpl = n.cfg.PaidTemplate
	}
	body := renderTemplate(tmpl, lead, map[string]string{"{from_status}": string(t.From)})
	subject := fmt.Sprintf("Lead %s: %s", t.To, lead.FullName())
	return n.dispatch(ctx, subject, body)
}

func (n *notifier) PaymentReceived(ctx context.Context, lead *crm.Lead, p *crm.Payment) []NotifyResult {
	if lead == nil || p == nil {
		return nil
	}
	body := renderTemplate(n.cfg.PaymentTemplate, lead, map[string]string{
		"{amount}": fmt.Sprintf("%.2f", p.Amount),
		"{plan}":   p.PlanChosen,
	})
	subject := fmt.Sprintf("Payment received: %s", lead.FullName())
	return n.dispatch(ctx, subject, body)
}

func (n *notifier) dispatch(ctx context.Context, subject, body string) []NotifyResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.cfg.Timeout)
	defer cancel()

	var out []NotifyResult
	if n.sms == nil || len(n.cfg.SMSTo) == 0 {
		out = append(out, NotifyResult{Channel: ChannelSMS, Skipped: true, Reason: "sms not configured"})
	} else {
		for _, to := range n.cfg.SMSTo {
			res := NotifyResult{Channel: ChannelSMS, To: to}
			if _, err := n.sms.SendSMS(ctx, to, body); err != nil {
				res.Reason = err.Error()
			} else {
				res.OK = true
			}
			out = append(out, res)
		}
	}

	if n.email == nil || len(n.cfg.EmailTo) == 0 {
		out = append(out, NotifyResult{Channel: ChannelEmail, Skipped: true, Reason: "email not configured"})
	} else {
		res := NotifyResult{Channel: ChannelEmail, To: strings.Join(n.cfg.EmailTo, ",")}
		if err := n.email.Send(ctx, email.Message{To: n.cfg.EmailTo, Subject: subject, Text: body}); err != nil {
			res.Reason = err.Error()
		} else {
			res.OK = true
		}
		out = append(out, res)
	}
	return out
}

func renderTemplate(tmpl string, lead *crm.Lead, extra map[string]string) string {
	pairs := []string{
		"{name}", lead.FullName(),
		"{first_name}", lead.FirstName,
		"{phone}", lead.Phone,
		"{email}", lead.Email,
		"{status}", lead.Status,
		"{license}", lead.LicenseGoal,
		"{source}", lead.Source,
		"{payment_status}", lead.PaymentStatus,
	}
	for k, v := range extra {
		pairs = append(pairs, k, v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// logNotifyResults logs each result. Failures are warnings, never errors
// returned to the caller.
func logNotifyResults(log *logger.Logger, leadID uint, results []NotifyResult) {
	for _, r := range results {
		switch {
		case r.OK:
			log.Info("notification sent", "lead_id", leadID, "channel", r.Channel)
		case r.Skipped:
			log.Debug("notification skipped", "lead_id", leadID, "channel", r.Channel, "reason", r.Reason)
		default:
			log.Warn("notification failed", "lead_id", leadID, "channel", r.Channel, "reason", r.Reason)
		}
	}
}
