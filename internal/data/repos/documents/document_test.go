package documents

import (
	"context"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
)

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewDocumentRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	lead := testutil.SeedLead(t, db)
	enr := testutil.SeedEnrollment(t, db, lead.ID)

	d := &crm.EnrollmentDocument{EnrollmentID: enr.ID, FileName: "id.pdf", FileSize: 1024, MimeType: "application/pdf", DocumentType: crm.DocumentIDVerification, Status: crm.DocumentPending}
	if err := repo.Create(dbc, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := repo.ListByEnrollment(dbc, enr.ID)
	if err != nil || len(list) != 1 || list[0].FileName != "id.pdf" {
		t.Fatalf("ListByEnrollment: %+v %v", list, err)
	}
	if err := repo.Delete(dbc, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := repo.GetByID(dbc, d.ID); err != nil || got != nil {
		t.Fatalf("GetByID after delete: %+v %v", got, err)
	}
}
