// Package email sends notification mail over SMTP (gomail) or the SendGrid
// API, whichever is configured.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("email: recipient required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("email: subject required")
	}
	if strings.TrimSpace(m.Text) == "" && strings.TrimSpace(m.HTML) == "" {
		return fmt.Errorf("email: body required")
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// NewFromEnv prefers SendGrid when SENDGRID_API_KEY is set and falls back to
// SMTP. It returns an error when neither is configured.
func NewFromEnv(log *logger.Logger) (Sender, error) {
	sg := SendGridConfigFromEnv(log)
	if sg.APIKey != "" {
		return NewSendGrid(log, sg)
	}
	smtp := SMTPConfigFromEnv(log)
	if smtp.Host != "" {
		return NewSMTP(log, smtp)
	}
	return nil, fmt.Errorf("missing SMTP_HOST or SENDGRID_API_KEY")
}
