package calls

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type ListFilter struct {
	LeadID uint
	Intent string
	Limit  int
	Offset int
}

// CallRecordRepo has no update path: call records are immutable.
type CallRecordRepo interface {
	Create(dbc dbctx.Context, rec *crm.CallRecord) error
	GetByCallID(dbc dbctx.Context, callID string) (*crm.CallRecord, error)
	List(dbc dbctx.Context, f ListFilter) ([]*crm.CallRecord, int64, error)
}

type callRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCallRecordRepo(db *gorm.DB, baseLog *logger.Logger) CallRecordRepo {
	return &callRecordRepo{db: db, log: baseLog.With("repo", "CallRecordRepo")}
}

func (r *callRecordRepo) Create(dbc dbctx.Context, rec *crm.CallRecord) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(rec).Error
}

func (r *callRecordRepo) GetByCallID(dbc dbctx.Context, callID string) (*crm.CallRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if callID == "" {
		return nil, nil
	}
	var rec crm.CallRecord
	err := transaction.WithContext(dbc.Ctx).Where("call_id = ?", callID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *callRecordRepo) List(dbc dbctx.Context, f ListFilter) ([]*crm.CallRecord, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&crm.CallRecord{})
	if f.LeadID != 0 {
		q = q.Where("lead_id = ?", f.LeadID)
	}
	if f.Intent != "" {
		q = q.Where("intent = ?", f.Intent)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*crm.CallRecord
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
