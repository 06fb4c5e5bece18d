package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/lifecycle"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
)

type EnrollmentInput struct {
	LeadID             uint
	CourseCode         string
	Cohort             string
	StartDate          *time.Time
	Status             string
	ProgressPercentage int
}

type EnrollmentUpdate struct {
	Status             *string
	Cohort             *string
	StartDate          *time.Time
	ProgressPercentage *int
}

type EnrollmentService interface {
	// Create inserts the enrollment and moves the owning lead to enrolled in
	// the same transaction.
	Create(ctx context.Context, in EnrollmentInput) (*crm.Enrollment, error)
	Get(ctx context.Context, id uint) (*crm.Enrollment, error)
	List(ctx context.Context, f repos.EnrollmentFilter) ([]*crm.Enrollment, int64, error)
	Update(ctx context.Context, id uint, u EnrollmentUpdate) (*crm.Enrollment, error)
}

type enrollmentService struct {
	log         *logger.Logger
	tx          aggregates.TxRunner
	leads       repos.LeadRepo
	enrollments repos.EnrollmentRepo
	leadSvc     LeadService
	emitter     realtime.Emitter
}

func NewEnrollmentService(log *logger.Logger, tx aggregates.TxRunner, leads repos.LeadRepo, enrollments repos.EnrollmentRepo, leadSvc LeadService, emitter realtime.Emitter) EnrollmentService {
	if emitter == nil {
		emitter = realtime.NopEmitter{}
	}
	return &enrollmentService{
		log:         log.With("service", "EnrollmentService"),
		tx:          tx,
		leads:       leads,
		enrollments: enrollments,
		leadSvc:     leadSvc,
		emitter:     emitter,
	}
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func (s *enrollmentService) Create(ctx context.Context, in EnrollmentInput) (*crm.Enrollment, error) {
	if in.LeadID == 0 {
		return nil, badRequest("invalid_lead_id", fmt.Errorf("lead_id required"))
	}
	var (
		lead *crm.Lead
		e    *crm.Enrollment
		t    lifecycle.Transition
	)
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		lead, err = s.leads.GetByID(dbc, in.LeadID)
		if err != nil {
			return err
		}
		if lead == nil {
			return notFound("lead_not_found", "lead")
		}
		e = &crm.Enrollment{
			LeadID:             lead.ID,
			CourseCode:         strings.TrimSpace(in.CourseCode),
			Cohort:             strings.TrimSpace(in.Cohort),
			StartDate:          in.StartDate,
			Status:             strings.TrimSpace(in.Status),
			ProgressPercentage: clampProgress(in.ProgressPercentage),
		}
		if e.CourseCode == "" {
			e.CourseCode = lead.LicenseGoal
		}
		if e.Cohort == "" {
			e.Cohort = crm.CohortDay
		}
		if e.Status == "" {
			e.Status = crm.EnrollmentEnrolled
		}
		if err := s.enrollments.Create(dbc, e); err != nil {
			return err
		}
		t, err = s.leadSvc.TransitionTx(dbc, lead, lifecycle.EnrollmentCreated())
		return err
	})
	if err != nil {
		if isAPIErr(err) {
			return nil, err
		}
		return nil, internal("enrollment_create_failed", err)
	}
	s.emitter.Emit(ctx, realtime.SSEEventEnrollmentCreated, e)
	s.leadSvc.Announce(ctx, lead, t)
	return e, nil
}

func (s *enrollmentService) Get(ctx context.Context, id uint) (*crm.Enrollment, error) {
	e, err := s.enrollments.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return nil, internal("enrollment_lookup_failed", err)
	}
	if e == nil {
		return nil, notFound("enrollment_not_found", "enrollment")
	}
	return e, nil
}

func (s *enrollmentService) List(ctx context.Context, f repos.EnrollmentFilter) ([]*crm.Enrollment, int64, error) {
	out, total, err := s.enrollments.List(dbctx.From(ctx), f)
	if err != nil {
		return nil, 0, internal("enrollment_list_failed", err)
	}
	return out, total, nil
}

func (s *enrollmentService) Update(ctx context.Context, id uint, u EnrollmentUpdate) (*crm.Enrollment, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if u.Status != nil {
		e.Status = strings.TrimSpace(*u.Status)
		updates["status"] = e.Status
	}
	if u.Cohort != nil {
		e.Cohort = strings.TrimSpace(*u.Cohort)
		updates["cohort"] = e.Cohort
	}
	if u.StartDate != nil {
		sd := u.StartDate.UTC()
		e.StartDate = &sd
		updates["start_date"] = sd
	}
	if u.ProgressPercentage != nil {
		e.ProgressPercentage = clampProgress(*u.ProgressPercentage)
		updates["progress_percentage"] = e.ProgressPercentage
	}
	if len(updates) == 0 {
		return e, nil
	}
	if err := s.enrollments.UpdateFields(dbctx.From(ctx), id, updates); err != nil {
		return nil, internal("enrollment_update_failed", err)
	}
	return e, nil
}
