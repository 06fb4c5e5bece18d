package payments

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type ListFilter struct {
	LeadID uint
	Status string
	Limit  int
	Offset int
}

type PaymentRepo interface {
	Create(dbc dbctx.Context, p *crm.Payment) error
	GetByID(dbc dbctx.Context, id uint) (*crm.Payment, error)
	GetByTransactionID(dbc dbctx.Context, txnID string) (*crm.Payment, error)
	List(dbc dbctx.Context, f ListFilter) ([]*crm.Payment, int64, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{db: db, log: baseLog.With("repo", "PaymentRepo")}
}

func (r *paymentRepo) Create(dbc dbctx.Context, p *crm.Payment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(p).Error
}

func (r *paymentRepo) GetByID(dbc dbctx.Context, id uint) (*crm.Payment, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *paymentRepo) GetByTransactionID(dbc dbctx.Context, txnID string) (*crm.Payment, error) {
	if txnID == "" {
		return nil, nil
	}
	return r.first(dbc, "transaction_id = ?", txnID)
}

func (r *paymentRepo) first(dbc dbctx.Context, cond string, arg interface{}) (*crm.Payment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var p crm.Payment
	err := transaction.WithContext(dbc.Ctx).Where(cond, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) List(dbc dbctx.Context, f ListFilter) ([]*crm.Payment, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&crm.Payment{})
	if f.LeadID != 0 {
		q = q.Where("lead_id = ?", f.LeadID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
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
	var out []*crm.Payment
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *paymentRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Model(&crm.Payment{}).Where("id = ?", id).Updates(updates).Error
}
