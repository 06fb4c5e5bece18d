package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/envutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type SMTPConfig struct {
	Host   string
	Port   int
	User   string
	Pass   string
	Sender string
}

func SMTPConfigFromEnv(log *logger.Logger) SMTPConfig {
	return SMTPConfig{
		Host:   envutil.String("SMTP_HOST", "", log),
		Port:   envutil.Int("SMTP_PORT", 465, log),
		User:   envutil.String("SMTP_USER", "", log),
		Pass:   envutil.String("SMTP_PASS", "", log),
		Sender: envutil.String("SMTP_SENDER", "", log),
	}
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpSender struct {
	log    *logger.Logger
	dialer dialer
	from   string
}

func NewSMTP(log *logger.Logger, cfg SMTPConfig) (Sender, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("missing SMTP_HOST")
	}
	from := strings.TrimSpace(cfg.Sender)
	if from == "" {
		from = strings.TrimSpace(cfg.User)
	}
	if from == "" {
		return nil, fmt.Errorf("missing SMTP_SENDER")
	}
	if cfg.Port <= 0 {
		cfg.Port = 465
	}
	return &smtpSender{
		log:    log.With("client", "SMTPSender"),
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   from,
	}, nil
}

func (s *smtpSender) Provider() string { return "smtp" }

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := buildMessage(s.from, msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m
}
