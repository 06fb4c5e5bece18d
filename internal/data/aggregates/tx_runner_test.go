package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
)

func TestGormTxRunnerRollsBackOnError(t *testing.T) {
	db := testutil.DB(t)
	runner := NewGormTxRunner(db)
	boom := errors.New("boom")

	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		testutil.SeedLead(t, dbc.Tx)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var n int64
	db.Model(&crm.Lead{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected rollback, found %d leads", n)
	}

	if err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		testutil.SeedLead(t, dbc.Tx)
		return nil
	}); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	db.Model(&crm.Lead{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected commit, found %d leads", n)
	}
}
