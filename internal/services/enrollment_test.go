package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/pointers"
)

func TestCreateEnrollmentMovesQualifiedLeadToEnrolled(t *testing.T) {
	h := newHarness(t)
	lead := testutil.SeedLead(t, h.db, func(l *crm.Lead) { l.Status = crm.LeadStatusQualified; l.LicenseGoal = crm.License240 })

	e, err := h.enrollments.Create(context.Background(), EnrollmentInput{LeadID: lead.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.CourseCode != crm.License240 || e.Cohort != crm.CohortDay || e.Status != crm.EnrollmentEnrolled {
		t.Fatalf("defaults: %+v", e)
	}
	if got := h.lead(t, lead.ID); got.Status != crm.LeadStatusEnrolled {
		t.Fatalf("lead status = %q, want enrolled", got.Status)
	}
	if n, _ := h.notifier.count(); n != 1 {
		t.Fatalf("expected enrolled notification, got %d", n)
	}
}

func TestCreateEnrollmentUnknownLead(t *testing.T) {
	h := newHarness(t)
	_, err := h.enrollments.Create(context.Background(), EnrollmentInput{LeadID: 999})
	if apiStatus(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestUpdateEnrollmentClampsProgress(t *testing.T) {
	h := newHarness(t)
	lead := testutil.SeedLead(t, h.db)
	e := testutil.SeedEnrollment(t, h.db, lead.ID)
	ctx := context.Background()

	got, err := h.enrollments.Update(ctx, e.ID, EnrollmentUpdate{ProgressPercentage: pointers.Ptr(150), Status: pointers.Ptr(crm.EnrollmentActive)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ProgressPercentage != 100 || got.Status != crm.EnrollmentActive {
		t.Fatalf("unexpected %+v", got)
	}
	got, err = h.enrollments.Update(ctx, e.ID, EnrollmentUpdate{ProgressPercentage: pointers.Ptr(-5)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	stored, _ := h.enrollments.Get(ctx, e.ID)
	if got.ProgressPercentage != 0 || stored.ProgressPercentage != 0 {
		t.Fatalf("progress not clamped: %d / %d", got.ProgressPercentage, stored.ProgressPercentage)
	}
}
