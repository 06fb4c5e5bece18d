package audit

import (
	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type AgentMetricRepo interface {
	Create(dbc dbctx.Context, rows []*crm.AgentMetric) error
	ListByConversation(dbc dbctx.Context, conversationID string) ([]*crm.AgentMetric, error)
}

type agentMetricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentMetricRepo(db *gorm.DB, baseLog *logger.Logger) AgentMetricRepo {
	return &agentMetricRepo{db: db, log: baseLog.With("repo", "AgentMetricRepo")}
}

func (r *agentMetricRepo) Create(dbc dbctx.Context, rows []*crm.AgentMetric) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *agentMetricRepo) ListByConversation(dbc dbctx.Context, conversationID string) ([]*crm.AgentMetric, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*crm.AgentMetric
	if err := transaction.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
