package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
)

var phoneSeq int64

// NextPhone returns a unique normalized phone number.
func NextPhone() string {
	n := atomic.AddInt64(&phoneSeq, 1)
	return fmt.Sprintf("+1555%07d", n)
}

func SeedLead(tb testing.TB, tx *gorm.DB, mutate ...func(*crm.Lead)) *crm.Lead {
	tb.Helper()
	l := &crm.Lead{
		FirstName:     "Test",
		LastName:      "Lead",
		Phone:         NextPhone(),
		Email:         "lead@example.com",
		LicenseGoal:   crm.License215,
		Source:        crm.SourceWebsite,
		Status:        crm.LeadStatusNew,
		PaymentStatus: crm.LeadNotPaid,
		AgentName:     crm.DefaultAgentName,
		Supervisor:    crm.DefaultSupervisor,
	}
	for _, m := range mutate {
		m(l)
	}
	if err := tx.Create(l).Error; err != nil {
		tb.Fatalf("seed lead: %v", err)
	}
	return l
}

func SeedPayment(tb testing.TB, tx *gorm.DB, leadID uint, amount float64, status string, createdAt time.Time, mutate ...func(*crm.Payment)) *crm.Payment {
	tb.Helper()
	p := &crm.Payment{
		LeadID:     leadID,
		PlanChosen: crm.PlanFullPayment,
		Amount:     amount,
		Currency:   "usd",
		Status:     status,
		CreatedAt:  createdAt.UTC(),
	}
	for _, m := range mutate {
		m(p)
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed payment: %v", err)
	}
	return p
}

func SeedEnrollment(tb testing.TB, tx *gorm.DB, leadID uint, mutate ...func(*crm.Enrollment)) *crm.Enrollment {
	tb.Helper()
	e := &crm.Enrollment{
		LeadID:     leadID,
		CourseCode: crm.License215,
		Cohort:     crm.CohortEvening,
		Status:     crm.EnrollmentEnrolled,
	}
	for _, m := range mutate {
		m(e)
	}
	if err := tx.Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedAppointment(tb testing.TB, tx *gorm.DB, leadID uint, status string, at time.Time) *crm.Appointment {
	tb.Helper()
	a := &crm.Appointment{
		LeadID:          leadID,
		Title:           "Consultation",
		DateTime:        at.UTC(),
		DurationMinutes: 30,
		Type:            crm.AppointmentConsultation,
		Status:          status,
	}
	if err := tx.Create(a).Error; err != nil {
		tb.Fatalf("seed appointment: %v", err)
	}
	return a
}

func SeedCallRecord(tb testing.TB, tx *gorm.DB, leadID uint, callID string, mutate ...func(*crm.CallRecord)) *crm.CallRecord {
	tb.Helper()
	c := &crm.CallRecord{
		LeadID:          leadID,
		CallID:          callID,
		Sentiment:       crm.SentimentNeutral,
		DurationSeconds: 60,
		Intent:          "interested",
		AgentConfidence: 0.9,
	}
	for _, m := range mutate {
		m(c)
	}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed call record: %v", err)
	}
	return c
}

func PtrTime(v time.Time) *time.Time { return &v }
