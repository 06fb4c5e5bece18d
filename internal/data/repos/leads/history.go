package leads

import (
	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type StatusHistoryRepo interface {
	Append(dbc dbctx.Context, h *crm.LeadStatusHistory) error
	ListByLead(dbc dbctx.Context, leadID uint) ([]*crm.LeadStatusHistory, error)
}

type statusHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusHistoryRepo(db *gorm.DB, baseLog *logger.Logger) StatusHistoryRepo {
	return &statusHistoryRepo{db: db, log: baseLog.With("repo", "StatusHistoryRepo")}
}

func (r *statusHistoryRepo) Append(dbc dbctx.Context, h *crm.LeadStatusHistory) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(h).Error
}

// ListByLead returns newest first.
func (r *statusHistoryRepo) ListByLead(dbc dbctx.Context, leadID uint) ([]*crm.LeadStatusHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*crm.LeadStatusHistory
	if err := transaction.WithContext(dbc.Ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
