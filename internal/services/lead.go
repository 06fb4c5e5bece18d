package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/cache"
	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
	"github.com/yungbote/licensing-crm-backend/internal/normalization"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/clock"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
)

// LeadFields is a partial lead. Nil fields are left untouched on update and
// defaulted on create.
type LeadFields struct {
	// OnCreate holds sender defaults used only when the lead does not exist
	// yet. Provided fields win over them.
	OnCreate *LeadFields

	FirstName          *string
	LastName           *string
	Email              *string
	LicenseGoal        *string
	Source             *string
	Status             *string
	PainPoints         *string
	EmploymentStatus   *string
	UrgencyLevel       *string
	PaymentPreference  *string
	PaymentStatus      *string
	ConfirmationNumber *string
	AgentName          *string
	Supervisor         *string
	CallSummary        *string
	CallTimestamp      *time.Time
	ConversationID     *string
	Notes              *string
}

type stringField struct {
	column string
	val    *string
	set    func(l *crm.Lead, v string)
}

func (f LeadFields) stringFields() []stringField {
	return []stringField{
		{"first_name", f.FirstName, func(l *crm.Lead, v string) { l.FirstName = v }},
		{"last_name", f.LastName, func(l *crm.Lead, v string) { l.LastName = v }},
		{"email", f.Email, func(l *crm.Lead, v string) { l.Email = v }},
		{"license_goal", f.LicenseGoal, func(l *crm.Lead, v string) { l.LicenseGoal = v }},
		{"source", f.Source, func(l *crm.Lead, v string) { l.Source = v }},
		{"pain_points", f.PainPoints, func(l *crm.Lead, v string) { l.PainPoints = v }},
		{"employment_status", f.EmploymentStatus, func(l *crm.Lead, v string) { l.EmploymentStatus = v }},
		{"urgency_level", f.UrgencyLevel, func(l *crm.Lead, v string) { l.UrgencyLevel = v }},
		{"payment_preference", f.PaymentPreference, func(l *crm.Lead, v string) { l.PaymentPreference = v }},
		{"payment_status", f.PaymentStatus, func(l *crm.Lead, v string) { l.PaymentStatus = v }},
		{"confirmation_number", f.ConfirmationNumber, func(l *crm.Lead, v string) { l.ConfirmationNumber = v }},
		{"agent_name", f.AgentName, func(l *crm.Lead, v string) { l.AgentName = v }},
		{"supervisor", f.Supervisor, func(l *crm.Lead, v string) { l.Supervisor = v }},
		{"call_summary", f.CallSummary, func(l *crm.Lead, v string) { l.CallSummary = v }},
		{"conversation_id", f.ConversationID, func(l *crm.Lead, v string) { l.ConversationID = v }},
		{"notes", f.Notes, func(l *crm.Lead, v string) { l.Notes = v }},
	}
}

// applyTo copies provided fields onto l and returns the matching column
// updates. Status is handled by the lifecycle engine, not here.
func (f LeadFields) applyTo(l *crm.Lead) map[string]interface{} {
	updates := map[string]interface{}{}
	for _, sf := range f.stringFields() {
		if sf.val == nil {
			continue
		}
		v := strings.TrimSpace(*sf.val)
		sf.set(l, v)
		updates[sf.column] = v
	}
	if f.CallTimestamp != nil {
		ts := f.CallTimestamp.UTC()
		l.CallTimestamp = &ts
		updates["call_timestamp"] = ts
	}
	return updates
}

func (f LeadFields) validate() error {
	if f.LicenseGoal != nil && !crm.IsLicenseGoal(strings.TrimSpace(*f.LicenseGoal)) {
		return badRequest("invalid_license_goal", fmt.Errorf("license_goal must be one of %s", strings.Join(crm.LicenseGoals, ", ")))
	}
	if f.Source != nil && !crm.IsLeadSource(strings.TrimSpace(*f.Source)) {
		return badRequest("invalid_source", fmt.Errorf("source must be one of %s", strings.Join(crm.LeadSources, ", ")))
	}
	if f.Email != nil {
		if e := strings.TrimSpace(*f.Email); e != "" && !validEmail(e) {
			return badRequest("invalid_email", fmt.Errorf("invalid email"))
		}
	}
	return nil
}

type UpsertResult struct {
	Lead          *crm.Lead            `json:"lead"`
	Created       bool                 `json:"created"`
	Transition    lifecycle.Transition `json:"-"`
	Notifications []NotifyResult       `json:"notifications,omitempty"`
	transitions   []lifecycle.Transition
}

type LeadService interface {
	// Upsert creates or partially updates the lead keyed by phone. ev, when
	// set, is applied after the field update. An explicit Status in f is a
	// manual override and wins over ev.
	Upsert(ctx context.Context, phone string, f LeadFields, ev *lifecycle.Event) (*UpsertResult, error)
	Get(ctx context.Context, id uint) (*crm.Lead, error)
	GetByPhone(ctx context.Context, phone string) (*crm.Lead, error)
	List(ctx context.Context, f repos.LeadFilter) ([]*crm.Lead, int64, error)
	Update(ctx context.Context, id uint, phone *string, f LeadFields) (*UpsertResult, error)
	ApplyEvent(ctx context.Context, id uint, ev lifecycle.Event) (*UpsertResult, error)
	History(ctx context.Context, id uint) ([]*crm.LeadStatusHistory, error)

	// TransitionTx applies ev to lead inside an open transaction, persisting
	// the status, a history row, and an auto-enrollment when required.
	TransitionTx(dbc dbctx.Context, lead *crm.Lead, ev lifecycle.Event) (lifecycle.Transition, error)
	// Announce runs the post-commit side effects of a transition.
	Announce(ctx context.Context, lead *crm.Lead, t lifecycle.Transition) []NotifyResult
}

type LeadServiceConfig struct {
	DefaultLicenseGoal string
	DefaultSource      string
	DefaultCohort      string
	CacheTTL           time.Duration
}

type leadService struct {
	log         *logger.Logger
	tx          aggregates.TxRunner
	leads       repos.LeadRepo
	history     repos.StatusHistoryRepo
	enrollments repos.EnrollmentRepo
	notifier    Notifier
	emitter     realtime.Emitter
	memo        *cache.Memo
	clk         clock.Clock
	cfg         LeadServiceConfig
	phoneLocks  *keyedMutex
}

func NewLeadService(
	log *logger.Logger,
	tx aggregates.TxRunner,
	leads repos.LeadRepo,
	history repos.StatusHistoryRepo,
	enrollments repos.EnrollmentRepo,
	notifier Notifier,
	emitter realtime.Emitter,
	memo *cache.Memo,
	clk clock.Clock,
	cfg LeadServiceConfig,
) LeadService {
	if cfg.DefaultLicenseGoal == "" {
		cfg.DefaultLicenseGoal = crm.DefaultLicenseGoal
	}
	if cfg.DefaultSource == "" {
		cfg.DefaultSource = crm.SourceManual
	}
	if cfg.DefaultCohort == "" {
		cfg.DefaultCohort = crm.CohortDay
	}
	if emitter == nil {
		emitter = realtime.NopEmitter{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &leadService{
		log:         log.With("service", "LeadService"),
		tx:          tx,
		leads:       leads,
		history:     history,
		enrollments: enrollments,
		notifier:    notifier,
		emitter:     emitter,
		memo:        memo,
		clk:         clk,
		cfg:         cfg,
		phoneLocks:  newKeyedMutex(),
	}
}

func leadCacheKey(id uint) string { return fmt.Sprintf("lead:%d", id) }

func (s *leadService) Upsert(ctx context.Context, phone string, f LeadFields, ev *lifecycle.Event) (*UpsertResult, error) {
	norm := normalization.NormalizePhone(phone)
	if norm == "" {
		return nil, badRequest("invalid_phone", fmt.Errorf("phone number required"))
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	if f.Status != nil {
		force := lifecycle.ForceStatus(*f.Status)
		ev = &force
	}

	unlock := s.phoneLocks.Lock(norm)
	defer unlock()

	res, err := s.upsertOnce(ctx, norm, f, ev)
	if err != nil && aggregates.IsUniqueViolation(err) {
		// Another replica inserted the same phone between lookup and insert.
		s.log.Info("lead insert raced; retrying as update", "phone", norm)
		res, err = s.upsertOnce(ctx, norm, f, ev)
	}
	if err != nil {
		if isAPIErr(err) {
			return nil, err
		}
		return nil, internal("lead_upsert_failed", aggregates.MapError("lead upsert", err))
	}

	s.afterWrite(ctx, res)
	return res, nil
}

func (s *leadService) upsertOnce(ctx context.Context, phone string, f LeadFields, ev *lifecycle.Event) (*UpsertResult, error) {
	res := &UpsertResult{}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		lead, err := s.leads.GetByPhone(dbc, phone)
		if err != nil {
			return err
		}
		if lead == nil {
			lead = s.newLead(phone, f)
			explicit := ""
			if ev != nil && ev.Kind == lifecycle.EventForceStatus {
				explicit = string(ev.Status)
			}
			created := lifecycle.Apply("", lifecycle.Created(explicit))
			lead.Status = string(created.To)
			if err := s.leads.Create(dbc, lead); err != nil {
				return err
			}
			if err := s.appendHistory(dbc, lead.ID, created); err != nil {
				return err
			}
			res.Created = true
			res.transitions = append(res.transitions, created)
			if ev != nil && ev.Kind == lifecycle.EventForceStatus {
				ev = nil
			}
		} else if updates := f.applyTo(lead); len(updates) > 0 {
			if err := s.leads.UpdateFields(dbc, lead.ID, updates); err != nil {
				return err
			}
		}

		if ev != nil {
			t, err := s.TransitionTx(dbc, lead, *ev)
			if err != nil {
				return err
			}
			res.transitions = append(res.transitions, t)
			if ev.Kind == lifecycle.EventVoiceCall {
				now := s.clk.Now().UTC()
				if err := s.leads.IncrementCallAttempts(dbc, lead.ID, now); err != nil {
					return err
				}
				lead.CallAttempts++
				lead.LastCallAttemptAt = &now
			}
		}
		res.Lead = lead
		return nil
	})
	if err != nil {
		return nil, err
	}
	if n := len(res.transitions); n > 0 {
		res.Transition = res.transitions[n-1]
	}
	return res, nil
}

func (s *leadService) newLead(phone string, f LeadFields) *crm.Lead {
	lead := &crm.Lead{Phone: phone}
	if f.OnCreate != nil {
		f.OnCreate.applyTo(lead)
	}
	f.applyTo(lead)
	if lead.FirstName == "" {
		lead.FirstName = crm.UnknownName
	}
	if lead.LastName == "" {
		lead.LastName = crm.UnknownName
	}
	if lead.Email == "" {
		lead.Email = fmt.Sprintf("lead-%s@%s", normalization.PhoneDigits(phone), crm.PlaceholderDomain)
	}
	if lead.LicenseGoal == "" {
		lead.LicenseGoal = s.cfg.DefaultLicenseGoal
	}
	if lead.Source == "" {
		lead.Source = s.cfg.DefaultSource
	}
	if lead.PaymentStatus == "" {
		lead.PaymentStatus = crm.LeadNotPaid
	}
	if lead.AgentName == "" {
		lead.AgentName = crm.DefaultAgentName
	}
	if lead.Supervisor == "" {
		lead.Supervisor = crm.DefaultSupervisor
	}
	return lead
}

func (s *leadService) appendHistory(dbc dbctx.Context, leadID uint, t lifecycle.Transition) error {
	return s.history.Append(dbc, &crm.LeadStatusHistory{
		LeadID:     leadID,
		FromStatus: string(t.From),
		ToStatus:   string(t.To),
		Event:      string(t.Event),
		Forced:     t.Forced,
	})
}

func (s *leadService) TransitionTx(dbc dbctx.Context, lead *crm.Lead, ev lifecycle.Event) (lifecycle.Transition, error) {
	t := lifecycle.Apply(lifecycle.Status(lead.Status), ev)
	if !t.Changed && !t.CreateEnrollment {
		return t, nil
	}
	if t.Changed {
		if err := s.leads.UpdateFields(dbc, lead.ID, map[string]interface{}{"status": string(t.To)}); err != nil {
			return t, err
		}
		lead.Status = string(t.To)
		if err := s.appendHistory(dbc, lead.ID, t); err != nil {
			return t, err
		}
	}
	if t.CreateEnrollment {
		e := &crm.Enrollment{
			LeadID:     lead.ID,
			CourseCode: lead.LicenseGoal,
			Cohort:     s.cfg.DefaultCohort,
			Status:     crm.EnrollmentEnrolled,
		}
		if err := s.enrollments.Create(dbc, e); err != nil {
			return t, err
		}
		lead.Enrollments = append(lead.Enrollments, *e)
	}
	return t, nil
}

func (s *leadService) Announce(ctx context.Context, lead *crm.Lead, t lifecycle.Transition) []NotifyResult {
	if lead == nil {
		return nil
	}
	s.memo.Invalidate(ctx, leadCacheKey(lead.ID))
	if t.Changed && t.Event != lifecycle.EventCreated {
		s.emitter.Emit(ctx, realtime.SSEEventLeadStatusChanged, map[string]any{
			"lead_id": lead.ID,
			"from":    t.From,
			"to":      t.To,
			"event":   t.Event,
			"forced":  t.Forced,
		})
	}
	if t.CreateEnrollment && len(lead.Enrollments) > 0 {
		s.emitter.Emit(ctx, realtime.SSEEventEnrollmentCreated, lead.Enrollments[len(lead.Enrollments)-1])
	}
	if !t.Notify || s.notifier == nil {
		return nil
	}
	results := s.notifier.LeadTransition(ctx, lead, t)
	logNotifyResults(s.log, lead.ID, results)
	return results
}

func (s *leadService) afterWrite(ctx context.Context, res *UpsertResult) {
	if res == nil || res.Lead == nil {
		return
	}
	if res.Created {
		s.emitter.Emit(ctx, realtime.SSEEventLeadCreated, res.Lead)
	} else {
		s.emitter.Emit(ctx, realtime.SSEEventLeadUpdated, res.Lead)
	}
	s.memo.Invalidate(ctx, leadCacheKey(res.Lead.ID))
	for _, t := range res.transitions {
		res.Notifications = append(res.Notifications, s.Announce(ctx, res.Lead, t)...)
	}
}

func (s *leadService) Get(ctx context.Context, id uint) (*crm.Lead, error) {
	load := func(ctx context.Context) (*crm.Lead, error) {
		lead, err := s.leads.GetByID(dbctx.From(ctx), id)
		if err != nil {
			return nil, internal("lead_lookup_failed", err)
		}
		if lead == nil {
			return nil, notFound("lead_not_found", "lead")
		}
		return lead, nil
	}
	if s.cfg.CacheTTL <= 0 {
		return load(ctx)
	}
	return cache.Remember(ctx, s.memo, leadCacheKey(id), s.cfg.CacheTTL, load)
}

func (s *leadService) GetByPhone(ctx context.Context, phone string) (*crm.Lead, error) {
	norm := normalization.NormalizePhone(phone)
	if norm == "" {
		return nil, badRequest("invalid_phone", fmt.Errorf("phone number required"))
	}
	lead, err := s.leads.GetByPhone(dbctx.From(ctx), norm)
	if err != nil {
		return nil, internal("lead_lookup_failed", err)
	}
	if lead == nil {
		return nil, notFound("lead_not_found", "lead")
	}
	return lead, nil
}

func (s *leadService) List(ctx context.Context, f repos.LeadFilter) ([]*crm.Lead, int64, error) {
	out, total, err := s.leads.List(dbctx.From(ctx), f)
	if err != nil {
		return nil, 0, internal("lead_list_failed", err)
	}
	return out, total, nil
}

func (s *leadService) Update(ctx context.Context, id uint, phone *string, f LeadFields) (*UpsertResult, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	res := &UpsertResult{}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		lead, err := s.leads.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if lead == nil {
			return notFound("lead_not_found", "lead")
		}
		updates := f.applyTo(lead)
		if phone != nil {
			norm := normalization.NormalizePhone(*phone)
			if norm == "" {
				return badRequest("invalid_phone", fmt.Errorf("phone number required"))
			}
			if norm != lead.Phone {
				other, err := s.leads.GetByPhone(dbc, norm)
				if err != nil {
					return err
				}
				if other != nil {
					return conflict("phone_in_use", fmt.Errorf("phone already belongs to lead %d", other.ID))
				}
				lead.Phone = norm
				updates["phone"] = norm
			}
		}
		if len(updates) > 0 {
			if err := s.leads.UpdateFields(dbc, lead.ID, updates); err != nil {
				return err
			}
		}
		if f.Status != nil {
			t, err := s.TransitionTx(dbc, lead, lifecycle.ForceStatus(*f.Status))
			if err != nil {
				return err
			}
			res.transitions = append(res.transitions, t)
			res.Transition = t
		}
		res.Lead = lead
		return nil
	})
	if err != nil {
		if isAPIErr(err) {
			return nil, err
		}
		if aggregates.IsUniqueViolation(err) {
			return nil, conflict("phone_in_use", err)
		}
		return nil, internal("lead_update_failed", err)
	}
	s.afterWrite(ctx, res)
	return res, nil
}

func (s *leadService) ApplyEvent(ctx context.Context, id uint, ev lifecycle.Event) (*UpsertResult, error) {
	res := &UpsertResult{}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		lead, err := s.leads.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if lead == nil {
			return notFound("lead_not_found", "lead")
		}
		t, err := s.TransitionTx(dbc, lead, ev)
		if err != nil {
			return err
		}
		res.Lead, res.Transition = lead, t
		return nil
	})
	if err != nil {
		if isAPIErr(err) {
			return nil, err
		}
		return nil, internal("lead_transition_failed", err)
	}
	res.Notifications = s.Announce(ctx, res.Lead, res.Transition)
	return res, nil
}

func (s *leadService) History(ctx context.Context, id uint) ([]*crm.LeadStatusHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.history.ListByLead(dbctx.From(ctx), id)
	if err != nil {
		return nil, internal("lead_history_failed", err)
	}
	return rows, nil
}
