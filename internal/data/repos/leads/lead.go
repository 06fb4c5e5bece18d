package leads

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type ListFilter struct {
	Status      string
	Source      string
	LicenseGoal string
	// Search matches name, email, or phone substrings.
	Search string
	Limit  int
	Offset int
}

type LeadRepo interface {
	Create(dbc dbctx.Context, lead *crm.Lead) error
	GetByID(dbc dbctx.Context, id uint) (*crm.Lead, error)
	GetByPhone(dbc dbctx.Context, phone string) (*crm.Lead, error)
	List(dbc dbctx.Context, f ListFilter) ([]*crm.Lead, int64, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error
	IncrementCallAttempts(dbc dbctx.Context, id uint, at time.Time) error
}

type leadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo {
	return &leadRepo{
		db:  db,
		log: baseLog.With("repo", "LeadRepo"),
	}
}

func (r *leadRepo) Create(dbc dbctx.Context, lead *crm.Lead) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if lead == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(lead).Error
}

func (r *leadRepo) GetByID(dbc dbctx.Context, id uint) (*crm.Lead, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == 0 {
		return nil, nil
	}
	var lead crm.Lead
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByPhone expects the normalized phone.
func (r *leadRepo) GetByPhone(dbc dbctx.Context, phone string) (*crm.Lead, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	var lead crm.Lead
	err := transaction.WithContext(dbc.Ctx).Where("phone = ?", phone).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepo) List(dbc dbctx.Context, f ListFilter) ([]*crm.Lead, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&crm.Lead{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}
	if f.LicenseGoal != "" {
		q = q.Where("license_goal = ?", f.LicenseGoal)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", like, like, like, like)
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
	var out []*crm.Lead
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *leadRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&crm.Lead{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *leadRepo) IncrementCallAttempts(dbc dbctx.Context, id uint, at time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&crm.Lead{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"call_attempts":        gorm.Expr("call_attempts + 1"),
			"last_call_attempt_at": at.UTC(),
		}).Error
}
