package enrollments

import (
	"context"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewEnrollmentRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	lead := testutil.SeedLead(t, db)

	e := &crm.Enrollment{LeadID: lead.ID, CourseCode: crm.License240, Cohort: crm.CohortWeekend, Status: crm.EnrollmentEnrolled}
	if err := repo.Create(dbc, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateFields(dbc, e.ID, map[string]interface{}{"progress_percentage": 40, "status": crm.EnrollmentActive}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(dbc, e.ID)
	if err != nil || got == nil || got.ProgressPercentage != 40 || got.Status != crm.EnrollmentActive {
		t.Fatalf("GetByID: %+v %v", got, err)
	}
	n, err := repo.CountByLead(dbc, lead.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountByLead: %d %v", n, err)
	}
	list, total, err := repo.List(dbc, ListFilter{Status: crm.EnrollmentActive})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("List: %d %v", total, err)
	}
}
