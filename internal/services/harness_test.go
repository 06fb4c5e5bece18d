package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/cache"
	"github.com/yungbote/licensing-crm-backend/internal/clients/twilio"
	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/clock"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/platform/apierr"
)

type recordingNotifier struct {
	mu          sync.Mutex
	transitions []lifecycle.Transition
	payments    []*crm.Payment
}

func (n *recordingNotifier) LeadTransition(_ context.Context, _ *crm.Lead, t lifecycle.Transition) []NotifyResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, t)
	return []NotifyResult{{Channel: ChannelSMS, To: "+15550000000", OK: true}}
}

func (n *recordingNotifier) PaymentReceived(_ context.Context, _ *crm.Lead, p *crm.Payment) []NotifyResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments = append(n.payments, p)
	return []NotifyResult{{Channel: ChannelSMS, To: "+15550000000", OK: true}}
}

func (n *recordingNotifier) count() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.transitions), len(n.payments)
}

type recordingSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordingSMS) SendSMS(_ context.Context, to, body string) (*twilio.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, to+"|"+body)
	return &twilio.Message{SID: "SM123", To: to, Body: body}, nil
}

type harness struct {
	db           *gorm.DB
	repos        repos.Set
	clk          *clock.Fake
	cal          Calendar
	memo         *cache.Memo
	notifier     *recordingNotifier
	leads        LeadService
	enrollments  EnrollmentService
	appointments AppointmentService
	payments     PaymentService
	calls        CallService
	audit        AuditService
	dispatcher   Dispatcher
	ingestion    IngestionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	clk := clock.NewFake(time.Now().UTC())
	mem, err := cache.NewMemory(256, clk)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	memo := cache.NewMemo(mem, log)
	tx := aggregates.NewGormTxRunner(db)
	notifier := &recordingNotifier{}
	cal := NewCalendar(clk, time.UTC)

	h := &harness{db: db, repos: set, clk: clk, cal: cal, memo: memo, notifier: notifier}
	h.leads = NewLeadService(log, tx, set.Lead, set.StatusHistory, set.Enrollment, notifier, nil, memo, clk, LeadServiceConfig{})
	h.enrollments = NewEnrollmentService(log, tx, set.Lead, set.Enrollment, h.leads, nil)
	h.appointments = NewAppointmentService(log, set.Lead, set.Appointment, nil)
	h.payments = NewPaymentService(log, tx, set.Lead, set.Payment, h.leads, notifier, nil, nil)
	h.calls = NewCallService(log, set.CallRecord)
	h.audit = NewAuditService(log, set.WebhookLog, set.AgentMetric, set.ChatHistory)
	h.dispatcher = NewDispatcher(log, set.Analytics, set.Lead, cal, nil, 0)
	h.ingestion = NewIngestionService(log, h.leads, h.calls, h.appointments, h.audit, h.dispatcher)
	return h
}

func (h *harness) lead(t *testing.T, id uint) *crm.Lead {
	t.Helper()
	l, err := h.repos.Lead.GetByID(ctxDB(), id)
	if err != nil || l == nil {
		t.Fatalf("lead %d: %+v %v", id, l, err)
	}
	return l
}

func (h *harness) countLeads(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(&crm.Lead{}).Count(&n).Error; err != nil {
		t.Fatalf("count leads: %v", err)
	}
	return n
}

func apiStatus(err error) int {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func ctxDB() dbctx.Context { return dbctx.From(context.Background()) }
