package enrollments

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

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, e *crm.Enrollment) error
	GetByID(dbc dbctx.Context, id uint) (*crm.Enrollment, error)
	List(dbc dbctx.Context, f ListFilter) ([]*crm.Enrollment, int64, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error
	CountByLead(dbc dbctx.Context, leadID uint) (int64, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, e *crm.Enrollment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(e).Error
}

func (r *enrollmentRepo) GetByID(dbc dbctx.Context, id uint) (*crm.Enrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var e crm.Enrollment
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) List(dbc dbctx.Context, f ListFilter) ([]*crm.Enrollment, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&crm.Enrollment{})
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
	var out []*crm.Enrollment
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *enrollmentRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Model(&crm.Enrollment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *enrollmentRepo) CountByLead(dbc dbctx.Context, leadID uint) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&crm.Enrollment{}).Where("lead_id = ?", leadID).Count(&n).Error
	return n, err
}
