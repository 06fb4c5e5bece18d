package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type ListFilter struct {
	Endpoint string
	Since    *time.Time
	Limit    int
}

// WebhookLogRepo is append-only.
type WebhookLogRepo interface {
	Create(dbc dbctx.Context, row *crm.WebhookLog) error
	List(dbc dbctx.Context, f ListFilter) ([]*crm.WebhookLog, error)
	Count(dbc dbctx.Context, endpoint string) (int64, error)
}

type webhookLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWebhookLogRepo(db *gorm.DB, baseLog *logger.Logger) WebhookLogRepo {
	return &webhookLogRepo{db: db, log: baseLog.With("repo", "WebhookLogRepo")}
}

func (r *webhookLogRepo) Create(dbc dbctx.Context, row *crm.WebhookLog) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *webhookLogRepo) List(dbc dbctx.Context, f ListFilter) ([]*crm.WebhookLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&crm.WebhookLog{})
	if f.Endpoint != "" {
		q = q.Where("endpoint = ?", f.Endpoint)
	}
	if f.Since != nil {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*crm.WebhookLog
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Count with an empty endpoint counts every row.
func (r *webhookLogRepo) Count(dbc dbctx.Context, endpoint string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&crm.WebhookLog{})
	if endpoint != "" {
		q = q.Where("endpoint = ?", endpoint)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
