package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/licensing-crm-backend/internal/cache"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/analytics"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type SourceStats struct {
	Leads     int64   `json:"leads"`
	Converted int64   `json:"converted"`
	Rate      float64 `json:"rate"`
}

// Snapshot is the dashboard analytics record. It carries no generation
// timestamp so that repeated reads of an unchanged store compare equal.
type Snapshot struct {
	ActiveLeads               int64                  `json:"activeLeads"`
	ActiveLeadsChange         float64                `json:"activeLeadsChange"`
	QualifiedLeads            int64                  `json:"qualifiedLeads"`
	EnrolledStudents          int64                  `json:"enrolledStudents"`
	ConversionRate            float64                `json:"conversionRate"`
	ConversionRateChange      float64                `json:"conversionRateChange"`
	MonthlyRevenue            float64                `json:"monthlyRevenue"`
	RevenueChange             float64                `json:"revenueChange"`
	AvgDealSize               float64                `json:"avgDealSize"`
	OutstandingPayments       float64                `json:"outstandingPayments"`
	PaymentPlanActive         int64                  `json:"paymentPlanActive"`
	AppointmentShowRate       float64                `json:"appointmentShowRate"`
	CourseEnrollmentBreakdown map[string]int64       `json:"courseEnrollmentBreakdown"`
	SourceBreakdown           map[string]SourceStats `json:"sourceBreakdown"`
}

type AnalyticsService interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type analyticsService struct {
	log  *logger.Logger
	repo repos.AnalyticsRepo
	cal  Calendar
	memo *cache.Memo
	ttl  time.Duration
}

const analyticsCacheKey = "analytics:snapshot"

// NewAnalyticsService caches snapshots for ttl; ttl <= 0 disables caching.
func NewAnalyticsService(log *logger.Logger, repo repos.AnalyticsRepo, cal Calendar, memo *cache.Memo, ttl time.Duration) AnalyticsService {
	return &analyticsService{
		log:  log.With("service", "AnalyticsService"),
		repo: repo,
		cal:  cal,
		memo: memo,
		ttl:  ttl,
	}
}

func (s *analyticsService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s.ttl <= 0 || s.memo == nil {
		return s.compute(ctx)
	}
	return cache.Remember(ctx, s.memo, analyticsCacheKey, s.ttl, s.compute)
}

func (s *analyticsService) compute(ctx context.Context) (*Snapshot, error) {
	now := s.cal.Now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	monthStart := s.cal.MonthStart()
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	var (
		snap                                        Snapshot
		activePrior                                 int64
		weekLeads, weekEnrolled                     int64
		prevWeekLeads, prevWeekEnrolled             int64
		prevMonthRevenue                            float64
		apptCompleted, apptTotal                    int64
		courseRows, sourceRows, sourceConvertedRows []analytics.GroupCount
	)
	completed := []string{crm.PaymentCompleted}
	enrolled := []string{crm.LeadStatusEnrolled}

	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.From(gctx)
	count := func(dst *int64, q analytics.LeadQuery) {
		g.Go(func() error {
			n, err := s.repo.CountLeads(dbc, q)
			*dst = n
			return err
		})
	}
	sum := func(dst *float64, q analytics.PaymentQuery) {
		g.Go(func() error {
			v, err := s.repo.SumPayments(dbc, q)
			*dst = v
			return err
		})
	}
	groups := func(dst *[]analytics.GroupCount, column string, statuses []string) {
		g.Go(func() error {
			rows, err := s.repo.LeadCountsBy(dbc, column, statuses)
			*dst = rows
			return err
		})
	}

	count(&snap.ActiveLeads, analytics.LeadQuery{Statuses: crm.ActiveLeadStatuses})
	count(&activePrior, analytics.LeadQuery{Statuses: crm.ActiveLeadStatuses, Created: analytics.Between(dayAgo, now)})
	count(&snap.QualifiedLeads, analytics.LeadQuery{Statuses: []string{crm.LeadStatusQualified}})
	count(&snap.EnrolledStudents, analytics.LeadQuery{Statuses: enrolled})
	count(&weekLeads, analytics.LeadQuery{Created: analytics.Between(weekAgo, now)})
	count(&weekEnrolled, analytics.LeadQuery{Statuses: enrolled, Created: analytics.Between(weekAgo, now)})
	count(&prevWeekLeads, analytics.LeadQuery{Created: analytics.Between(twoWeeksAgo, weekAgo)})
	count(&prevWeekEnrolled, analytics.LeadQuery{Statuses: enrolled, Created: analytics.Between(twoWeeksAgo, weekAgo)})

	sum(&snap.MonthlyRevenue, analytics.PaymentQuery{Statuses: completed, Created: analytics.Since(monthStart)})
	sum(&prevMonthRevenue, analytics.PaymentQuery{Statuses: completed, Created: analytics.Between(prevMonthStart, monthStart)})
	sum(&snap.OutstandingPayments, analytics.PaymentQuery{Statuses: crm.OutstandingPaymentStatuses})
	g.Go(func() error {
		v, err := s.repo.AvgPayment(dbc, analytics.PaymentQuery{Statuses: completed})
		snap.AvgDealSize = v
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountPayments(dbc, analytics.PaymentQuery{Plan: crm.PlanPaymentPlan})
		snap.PaymentPlanActive = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountAppointments(dbc, []string{crm.AppointmentCompleted}, analytics.Window{})
		apptCompleted = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountAppointments(dbc, nil, analytics.Window{})
		apptTotal = n
		return err
	})

	groups(&courseRows, "license_goal", enrolled)
	groups(&sourceRows, "source", nil)
	groups(&sourceConvertedRows, "source", enrolled)

	if err := g.Wait(); err != nil {
		s.log.Error("analytics snapshot failed", "error", err)
		return nil, internal("analytics_failed", err)
	}

	snap.ActiveLeadsChange = percentChange(float64(snap.ActiveLeads), float64(activePrior))
	snap.ConversionRate = percent(float64(weekEnrolled), float64(weekLeads))
	prevRate := percent(float64(prevWeekEnrolled), float64(prevWeekLeads))
	snap.ConversionRateChange = round1(snap.ConversionRate - prevRate)
	snap.RevenueChange = percentChange(snap.MonthlyRevenue, prevMonthRevenue)
	snap.MonthlyRevenue = roundCents(snap.MonthlyRevenue)
	snap.AvgDealSize = roundCents(snap.AvgDealSize)
	snap.OutstandingPayments = roundCents(snap.OutstandingPayments)
	snap.AppointmentShowRate = percent(float64(apptCompleted), float64(apptTotal))

	snap.CourseEnrollmentBreakdown = make(map[string]int64, len(courseRows))
	for _, r := range courseRows {
		snap.CourseEnrollmentBreakdown[r.Key] = r.Count
	}
	snap.SourceBreakdown = make(map[string]SourceStats, len(sourceRows))
	for _, r := range sourceRows {
		snap.SourceBreakdown[r.Key] = SourceStats{Leads: r.Count}
	}
	for _, r := range sourceConvertedRows {
		st := snap.SourceBreakdown[r.Key]
		st.Converted = r.Count
		snap.SourceBreakdown[r.Key] = st
	}
	for k, st := range snap.SourceBreakdown {
		st.Rate = percent(float64(st.Converted), float64(st.Leads))
		snap.SourceBreakdown[k] = st
	}
	return &snap, nil
}
