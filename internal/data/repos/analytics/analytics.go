// Package analytics holds the read-only aggregate queries behind the
// analytics snapshot and the query dispatcher. Windows are [From, To).
package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type Window struct {
	From *time.Time
	To   *time.Time
}

func Between(from, to time.Time) Window {
	f, t := from.UTC(), to.UTC()
	return Window{From: &f, To: &t}
}

func Since(from time.Time) Window {
	f := from.UTC()
	return Window{From: &f}
}

type LeadQuery struct {
	Statuses []string
	Source   string
	Created  Window
	Updated  Window
}

type PaymentQuery struct {
	Statuses []string
	Plan     string
	Created  Window
}

type GroupCount struct {
	Key   string `gorm:"column:group_key"`
	Count int64  `gorm:"column:group_count"`
}

type CallStats struct {
	Calls              int64   `gorm:"column:calls"`
	AvgDurationSeconds float64 `gorm:"column:avg_duration"`
	AvgConfidence      float64 `gorm:"column:avg_confidence"`
	Positive           int64   `gorm:"column:positive"`
	Neutral            int64   `gorm:"column:neutral"`
	Negative           int64   `gorm:"column:negative"`
}

type AnalyticsRepo interface {
	CountLeads(dbc dbctx.Context, q LeadQuery) (int64, error)
	LeadCountsBy(dbc dbctx.Context, column string, statuses []string) ([]GroupCount, error)
	SumPayments(dbc dbctx.Context, q PaymentQuery) (float64, error)
	AvgPayment(dbc dbctx.Context, q PaymentQuery) (float64, error)
	CountPayments(dbc dbctx.Context, q PaymentQuery) (int64, error)
	CountAppointments(dbc dbctx.Context, statuses []string, scheduled Window) (int64, error)
	CountEnrollments(dbc dbctx.Context, created Window) (int64, error)
	CallStats(dbc dbctx.Context, created Window) (CallStats, error)
	RecentLeads(dbc dbctx.Context, limit int) ([]*crm.Lead, error)
}

type analyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return &analyticsRepo{db: db, log: baseLog.With("repo", "AnalyticsRepo")}
}

func (r *analyticsRepo) conn(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func applyWindow(q *gorm.DB, column string, w Window) *gorm.DB {
	if w.From != nil {
		q = q.Where(column+" >= ?", w.From.UTC())
	}
	if w.To != nil {
		q = q.Where(column+" < ?", w.To.UTC())
	}
	return q
}

func (r *analyticsRepo) CountLeads(dbc dbctx.Context, lq LeadQuery) (int64, error) {
	q := r.conn(dbc).Model(&crm.Lead{})
	if len(lq.Statuses) > 0 {
		q = q.Where("status IN ?", lq.Statuses)
	}
	if lq.Source != "" {
		q = q.Where("source = ?", lq.Source)
	}
	q = applyWindow(q, "created_at", lq.Created)
	q = applyWindow(q, "updated_at", lq.Updated)
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

var groupableLeadColumns = map[string]bool{
	"source":       true,
	"license_goal": true,
	"status":       true,
}

// LeadCountsBy groups leads by one of source, license_goal, or status.
// Only keys present in the table are returned.
func (r *analyticsRepo) LeadCountsBy(dbc dbctx.Context, column string, statuses []string) ([]GroupCount, error) {
	if !groupableLeadColumns[column] {
		return nil, fmt.Errorf("analytics: cannot group leads by %q", column)
	}
	q := r.conn(dbc).Model(&crm.Lead{}).
		Select(column + " AS group_key, COUNT(*) AS group_count")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var out []GroupCount
	if err := q.Group(column).Order(column).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analyticsRepo) paymentScope(dbc dbctx.Context, pq PaymentQuery) *gorm.DB {
	q := r.conn(dbc).Model(&crm.Payment{})
	if len(pq.Statuses) > 0 {
		q = q.Where("status IN ?", pq.Statuses)
	}
	if pq.Plan != "" {
		q = q.Where("plan_chosen = ?", pq.Plan)
	}
	return applyWindow(q, "created_at", pq.Created)
}

func (r *analyticsRepo) SumPayments(dbc dbctx.Context, pq PaymentQuery) (float64, error) {
	var total float64
	if err := r.paymentScope(dbc, pq).Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *analyticsRepo) AvgPayment(dbc dbctx.Context, pq PaymentQuery) (float64, error) {
	var avg float64
	if err := r.paymentScope(dbc, pq).Select("COALESCE(AVG(amount), 0)").Scan(&avg).Error; err != nil {
		return 0, err
	}
	return avg, nil
}

func (r *analyticsRepo) CountPayments(dbc dbctx.Context, pq PaymentQuery) (int64, error) {
	var n int64
	if err := r.paymentScope(dbc, pq).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *analyticsRepo) CountAppointments(dbc dbctx.Context, statuses []string, scheduled Window) (int64, error) {
	q := r.conn(dbc).Model(&crm.Appointment{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	q = applyWindow(q, "date_time", scheduled)
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *analyticsRepo) CountEnrollments(dbc dbctx.Context, created Window) (int64, error) {
	q := applyWindow(r.conn(dbc).Model(&crm.Enrollment{}), "created_at", created)
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *analyticsRepo) CallStats(dbc dbctx.Context, created Window) (CallStats, error) {
	q := applyWindow(r.conn(dbc).Model(&crm.CallRecord{}), "created_at", created).
		Select(`COUNT(*) AS calls,
			COALESCE(AVG(duration_seconds), 0) AS avg_duration,
			COALESCE(AVG(agent_confidence), 0) AS avg_confidence,
			COALESCE(SUM(CASE WHEN sentiment = ? THEN 1 ELSE 0 END), 0) AS positive,
			COALESCE(SUM(CASE WHEN sentiment = ? THEN 1 ELSE 0 END), 0) AS neutral,
			COALESCE(SUM(CASE WHEN sentiment = ? THEN 1 ELSE 0 END), 0) AS negative`,
			crm.SentimentPositive, crm.SentimentNeutral, crm.SentimentNegative)
	var out CallStats
	if err := q.Scan(&out).Error; err != nil {
		return CallStats{}, err
	}
	return out, nil
}

// RecentLeads returns the most recently touched leads.
func (r *analyticsRepo) RecentLeads(dbc dbctx.Context, limit int) ([]*crm.Lead, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []*crm.Lead
	if err := r.conn(dbc).
		Order("updated_at DESC").Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
