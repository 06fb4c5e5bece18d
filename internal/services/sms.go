package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/clients/twilio"
	"github.com/yungbote/licensing-crm-backend/internal/normalization"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

// SMSService backs the manual SMS verification endpoints.
type SMSService interface {
	SendTest(ctx context.Context, to, body string) (*twilio.Message, error)
	SendPersonal(ctx context.Context, body string) (*twilio.Message, error)
}

type smsService struct {
	log        *logger.Logger
	sms        SMSSender
	personalTo string
}

func NewSMSService(log *logger.Logger, sms SMSSender, personalTo string) SMSService {
	return &smsService{log: log.With("service", "SMSService"), sms: sms, personalTo: personalTo}
}

func (s *smsService) send(ctx context.Context, to, body string) (*twilio.Message, error) {
	if s.sms == nil {
		return nil, apiNotConfigured("twilio")
	}
	norm := normalization.NormalizePhone(to)
	if norm == "" {
		return nil, badRequest("invalid_phone", fmt.Errorf("destination phone required"))
	}
	if strings.TrimSpace(body) == "" {
		body = fmt.Sprintf("CRM test message sent at %s", time.Now().UTC().Format(time.RFC3339))
	}
	msg, err := s.sms.SendSMS(ctx, norm, body)
	if err != nil {
		s.log.Warn("test sms failed", "to", norm, "error", err)
		return nil, apiBadGateway("sms_send_failed", err)
	}
	s.log.Info("test sms sent", "to", norm, "sid", msg.SID)
	return msg, nil
}

func (s *smsService) SendTest(ctx context.Context, to, body string) (*twilio.Message, error) {
	return s.send(ctx, to, body)
}

func (s *smsService) SendPersonal(ctx context.Context, body string) (*twilio.Message, error) {
	if strings.TrimSpace(s.personalTo) == "" {
		return nil, apiNotConfigured("personal_sms")
	}
	return s.send(ctx, s.personalTo, body)
}
