package appointments

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type ListFilter struct {
	LeadID uint
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type AppointmentRepo interface {
	Create(dbc dbctx.Context, a *crm.Appointment) error
	GetByID(dbc dbctx.Context, id uint) (*crm.Appointment, error)
	List(dbc dbctx.Context, f ListFilter) ([]*crm.Appointment, int64, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uint) (bool, error)
}

type appointmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppointmentRepo(db *gorm.DB, baseLog *logger.Logger) AppointmentRepo {
	return &appointmentRepo{db: db, log: baseLog.With("repo", "AppointmentRepo")}
}

func (r *appointmentRepo) Create(dbc dbctx.Context, a *crm.Appointment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	a.DateTime = a.DateTime.UTC()
	return transaction.WithContext(dbc.Ctx).Create(a).Error
}

func (r *appointmentRepo) GetByID(dbc dbctx.Context, id uint) (*crm.Appointment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var a crm.Appointment
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List orders by appointment time, soonest first.
func (r *appointmentRepo) List(dbc dbctx.Context, f ListFilter) ([]*crm.Appointment, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&crm.Appointment{})
	if f.LeadID != 0 {
		q = q.Where("lead_id = ?", f.LeadID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("date_time >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("date_time < ?", f.To.UTC())
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
	var out []*crm.Appointment
	if err := q.Order("date_time ASC").Order("id ASC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *appointmentRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == 0 || len(updates) == 0 {
		return nil
	}
	if t, ok := updates["date_time"].(time.Time); ok {
		updates["date_time"] = t.UTC()
	}
	return transaction.WithContext(dbc.Ctx).Model(&crm.Appointment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *appointmentRepo) Delete(dbc dbctx.Context, id uint) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&crm.Appointment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
