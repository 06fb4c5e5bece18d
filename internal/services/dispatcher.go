package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/cache"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/analytics"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

// Queries understood by the dispatcher. Matching is case-sensitive.
const (
	QueryEnrollmentsToday    = "enrollments_today"
	QueryLeadsToday          = "leads_today"
	QueryQualifiedLeads      = "qualified_leads"
	QueryEnrollmentBreakdown = "enrollment_breakdown"
	QueryRevenueToday        = "revenue_today"
	QueryAgentPerformance    = "agent_performance"
	QueryCallSummary         = "call_summary"
	QueryLicenseTypes        = "license_types"
	QueryRecentActivity      = "recent_activity"
	QueryConversionRate      = "conversion_rate"

	leadQueryPrefix = "lead:"
)

const (
	AnswerUnknownQuery    = "Unknown query"
	AnswerInvalidLeadID   = "Invalid lead ID format"
	AnswerLeadNotFound    = "Lead not found"
	AnswerTemporaryFailed = "Unable to answer that right now, please try again shortly."
)

// QueryNames lists the fixed vocabulary, for tool descriptions.
var QueryNames = []string{
	QueryEnrollmentsToday, QueryLeadsToday, QueryQualifiedLeads, QueryEnrollmentBreakdown,
	QueryRevenueToday, QueryAgentPerformance, QueryCallSummary, QueryLicenseTypes,
	QueryRecentActivity, QueryConversionRate,
}

// Dispatcher answers analytics questions with one human-readable sentence.
// It never fails: lookup errors are logged and answered with a fallback.
type Dispatcher interface {
	Dispatch(ctx context.Context, query string) string
}

type dispatcher struct {
	log   *logger.Logger
	repo  repos.AnalyticsRepo
	leads repos.LeadRepo
	cal   Calendar
	memo  *cache.Memo
	ttl   time.Duration
	funcs map[string]func(ctx context.Context) (string, error)
}

func NewDispatcher(log *logger.Logger, repo repos.AnalyticsRepo, leads repos.LeadRepo, cal Calendar, memo *cache.Memo, ttl time.Duration) Dispatcher {
	d := &dispatcher{
		log:   log.With("service", "Dispatcher"),
		repo:  repo,
		leads: leads,
		cal:   cal,
		memo:  memo,
		ttl:   ttl,
	}
	d.funcs = map[string]func(ctx context.Context) (string, error){
		QueryEnrollmentsToday:    d.enrollmentsToday,
		QueryLeadsToday:          d.leadsToday,
		QueryQualifiedLeads:      d.qualifiedLeads,
		QueryEnrollmentBreakdown: d.enrollmentBreakdown,
		QueryRevenueToday:        d.revenueToday,
		QueryAgentPerformance:    d.agentPerformance,
		QueryCallSummary:         d.callSummary,
		QueryLicenseTypes:        d.licenseTypes,
		QueryRecentActivity:      d.recentActivity,
		QueryConversionRate:      d.conversionRate,
	}
	return d
}

// Dispatch matches query names as exact, case-sensitive literals.
func (d *dispatcher) Dispatch(ctx context.Context, query string) string {
	var fn func(ctx context.Context) (string, error)
	if strings.HasPrefix(query, leadQueryPrefix) {
		id, err := strconv.ParseUint(strings.TrimPrefix(query, leadQueryPrefix), 10, 32)
		if err != nil {
			return AnswerInvalidLeadID
		}
		fn = func(ctx context.Context) (string, error) { return d.lead(ctx, uint(id)) }
	} else if f, ok := d.funcs[query]; ok {
		fn = f
	} else {
		return AnswerUnknownQuery
	}

	var (
		answer string
		err    error
	)
	if d.ttl > 0 && d.memo != nil {
		answer, err = cache.Remember(ctx, d.memo, "mcp:"+query, d.ttl, fn)
	} else {
		answer, err = fn(ctx)
	}
	if err != nil {
		d.log.Error("query dispatch failed", "query", query, "error", err)
		return AnswerTemporaryFailed
	}
	return answer
}

func (d *dispatcher) today() analytics.Window {
	start, end := d.cal.Today()
	return analytics.Between(start, end)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func joinGroups(rows []analytics.GroupCount) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		key := r.Key
		if key == "" {
			key = "unspecified"
		}
		parts = append(parts, fmt.Sprintf("%s: %d", key, r.Count))
	}
	return strings.Join(parts, ", ")
}

func (d *dispatcher) enrollmentsToday(ctx context.Context) (string, error) {
	n, err := d.repo.CountEnrollments(dbctx.From(ctx), d.today())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d new %s today.", n, plural(n, "enrollment", "enrollments")), nil
}

func (d *dispatcher) leadsToday(ctx context.Context) (string, error) {
	n, err := d.repo.CountLeads(dbctx.From(ctx), analytics.LeadQuery{Created: d.today()})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d new %s came in today.", n, plural(n, "lead", "leads")), nil
}

func (d *dispatcher) qualifiedLeads(ctx context.Context) (string, error) {
	n, err := d.repo.CountLeads(dbctx.From(ctx), analytics.LeadQuery{Statuses: []string{crm.LeadStatusQualified}})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("There %s %d qualified %s ready for enrollment.", plural(n, "is", "are"), n, plural(n, "lead", "leads")), nil
}

func (d *dispatcher) enrollmentBreakdown(ctx context.Context) (string, error) {
	rows, err := d.repo.LeadCountsBy(dbctx.From(ctx), "license_goal", []string{crm.LeadStatusEnrolled})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No students are enrolled yet.", nil
	}
	return "Enrolled students by license: " + joinGroups(rows) + ".", nil
}

func (d *dispatcher) revenueToday(ctx context.Context) (string, error) {
	q := analytics.PaymentQuery{Statuses: []string{crm.PaymentCompleted}, Created: d.today()}
	dbc := dbctx.From(ctx)
	total, err := d.repo.SumPayments(dbc, q)
	if err != nil {
		return "", err
	}
	n, err := d.repo.CountPayments(dbc, q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Revenue today is $%.2f from %d completed %s.", roundCents(total), n, plural(n, "payment", "payments")), nil
}

func (d *dispatcher) agentPerformance(ctx context.Context) (string, error) {
	st, err := d.repo.CallStats(dbctx.From(ctx), analytics.Window{})
	if err != nil {
		return "", err
	}
	if st.Calls == 0 {
		return "The voice agent has not handled any calls yet.", nil
	}
	return fmt.Sprintf(
		"The voice agent has handled %d %s with an average confidence of %.1f%% and an average duration of %.0f seconds (%d positive, %d neutral, %d negative).",
		st.Calls, plural(st.Calls, "call", "calls"), round1(st.AvgConfidence*100), st.AvgDurationSeconds,
		st.Positive, st.Neutral, st.Negative,
	), nil
}

func (d *dispatcher) callSummary(ctx context.Context) (string, error) {
	st, err := d.repo.CallStats(dbctx.From(ctx), d.today())
	if err != nil {
		return "", err
	}
	if st.Calls == 0 {
		return "No calls have been recorded today.", nil
	}
	return fmt.Sprintf("%d %s today, averaging %.0f seconds; %d positive, %d neutral, %d negative.",
		st.Calls, plural(st.Calls, "call", "calls"), st.AvgDurationSeconds, st.Positive, st.Neutral, st.Negative), nil
}

func (d *dispatcher) licenseTypes(ctx context.Context) (string, error) {
	rows, err := d.repo.LeadCountsBy(dbctx.From(ctx), "license_goal", nil)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "There are no leads yet.", nil
	}
	return "Leads by license type: " + joinGroups(rows) + ".", nil
}

func (d *dispatcher) recentActivity(ctx context.Context) (string, error) {
	leads, err := d.repo.RecentLeads(dbctx.From(ctx), 5)
	if err != nil {
		return "", err
	}
	if len(leads) == 0 {
		return "No recent activity.", nil
	}
	parts := make([]string, 0, len(leads))
	for _, l := range leads {
		parts = append(parts, fmt.Sprintf("%s (%s)", l.FullName(), l.Status))
	}
	return "Recent activity: " + strings.Join(parts, ", ") + ".", nil
}

func (d *dispatcher) conversionRate(ctx context.Context) (string, error) {
	dbc := dbctx.From(ctx)
	total, err := d.repo.CountLeads(dbc, analytics.LeadQuery{})
	if err != nil {
		return "", err
	}
	enrolled, err := d.repo.CountLeads(dbc, analytics.LeadQuery{Statuses: []string{crm.LeadStatusEnrolled}})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("The overall conversion rate is %.1f%% (%d of %d leads enrolled).",
		percent(float64(enrolled), float64(total)), enrolled, total), nil
}

func (d *dispatcher) lead(ctx context.Context, id uint) (string, error) {
	l, err := d.leads.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return "", err
	}
	if l == nil {
		return AnswerLeadNotFound, nil
	}
	return fmt.Sprintf("Lead #%d: %s, status %s, pursuing the %s license, source %s.",
		l.ID, l.FullName(), l.Status, l.LicenseGoal, l.Source), nil
}
