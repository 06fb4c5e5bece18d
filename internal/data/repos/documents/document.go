package documents

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, d *crm.EnrollmentDocument) error
	GetByID(dbc dbctx.Context, id uint) (*crm.EnrollmentDocument, error)
	ListByEnrollment(dbc dbctx.Context, enrollmentID uint) ([]*crm.EnrollmentDocument, error)
	Delete(dbc dbctx.Context, id uint) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, d *crm.EnrollmentDocument) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(d).Error
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uint) (*crm.EnrollmentDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var d crm.EnrollmentDocument
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) ListByEnrollment(dbc dbctx.Context, enrollmentID uint) ([]*crm.EnrollmentDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*crm.EnrollmentDocument
	if err := transaction.WithContext(dbc.Ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) Delete(dbc dbctx.Context, id uint) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&crm.EnrollmentDocument{}).Error
}
