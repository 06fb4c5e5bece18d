package audit

import (
	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type ChatHistoryRepo interface {
	Create(dbc dbctx.Context, row *crm.N8nChatHistory) error
	ListBySession(dbc dbctx.Context, sessionID string, limit int) ([]*crm.N8nChatHistory, error)
}

type chatHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ChatHistoryRepo {
	return &chatHistoryRepo{db: db, log: baseLog.With("repo", "ChatHistoryRepo")}
}

func (r *chatHistoryRepo) Create(dbc dbctx.Context, row *crm.N8nChatHistory) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

// ListBySession returns oldest first.
func (r *chatHistoryRepo) ListBySession(dbc dbctx.Context, sessionID string, limit int) ([]*crm.N8nChatHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*crm.N8nChatHistory
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
