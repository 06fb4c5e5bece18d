package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type WebhookEntry struct {
	Endpoint       string
	Method         string
	RequestID      string
	Payload        []byte
	ResponseStatus int
	Latency        time.Duration
	Err            string
}

type AuditResult struct {
	OK     bool
	Reason string
}

type AuditService interface {
	RecordWebhook(ctx context.Context, e WebhookEntry) AuditResult
	RecordAgentMetrics(ctx context.Context, rows []*crm.AgentMetric) AuditResult
	AppendChatHistory(ctx context.Context, sessionID string, message []byte) AuditResult
	ListWebhooks(ctx context.Context, endpoint string, limit int) ([]*crm.WebhookLog, error)
}

type auditService struct {
	log         *logger.Logger
	webhookLogs repos.WebhookLogRepo
	metrics     repos.AgentMetricRepo
	chat        repos.ChatHistoryRepo
	timeout     time.Duration
}

func NewAuditService(log *logger.Logger, webhookLogs repos.WebhookLogRepo, metrics repos.AgentMetricRepo, chat repos.ChatHistoryRepo) AuditService {
	return &auditService{
		log:         log.With("service", "AuditService"),
		webhookLogs: webhookLogs,
		metrics:     metrics,
		chat:        chat,
		timeout:     5 * time.Second,
	}
}

// writeCtx outlives the request so a client disconnect does not drop the row.
func (s *auditService) writeCtx(ctx context.Context) (dbctx.Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	return dbctx.Context{Ctx: c}, cancel
}

func jsonOrNull(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(raw)})
	return datatypes.JSON(wrapped)
}

func (s *auditService) RecordWebhook(ctx context.Context, e WebhookEntry) AuditResult {
	dbc, cancel := s.writeCtx(ctx)
	defer cancel()
	row := &crm.WebhookLog{
		Endpoint:       e.Endpoint,
		Method:         e.Method,
		RequestID:      e.RequestID,
		Payload:        jsonOrNull(e.Payload),
		ResponseStatus: e.ResponseStatus,
		LatencyMs:      e.Latency.Milliseconds(),
		Error:          e.Err,
	}
	if err := s.webhookLogs.Create(dbc, row); err != nil {
		s.log.Warn("webhook audit write failed", "endpoint", e.Endpoint, "error", err)
		return AuditResult{Reason: err.Error()}
	}
	return AuditResult{OK: true}
}

func (s *auditService) RecordAgentMetrics(ctx context.Context, rows []*crm.AgentMetric) AuditResult {
	if len(rows) == 0 {
		return AuditResult{OK: true}
	}
	dbc, cancel := s.writeCtx(ctx)
	defer cancel()
	if err := s.metrics.Create(dbc, rows); err != nil {
		s.log.Warn("agent metric write failed", "rows", len(rows), "error", err)
		return AuditResult{Reason: err.Error()}
	}
	return AuditResult{OK: true}
}

func (s *auditService) AppendChatHistory(ctx context.Context, sessionID string, message []byte) AuditResult {
	if sessionID == "" {
		return AuditResult{Reason: "missing session id"}
	}
	dbc, cancel := s.writeCtx(ctx)
	defer cancel()
	if err := s.chat.Create(dbc, &crm.N8nChatHistory{SessionID: sessionID, Message: jsonOrNull(message)}); err != nil {
		s.log.Warn("chat history write failed", "session_id", sessionID, "error", err)
		return AuditResult{Reason: err.Error()}
	}
	return AuditResult{OK: true}
}

func (s *auditService) ListWebhooks(ctx context.Context, endpoint string, limit int) ([]*crm.WebhookLog, error) {
	return s.webhookLogs.List(dbctx.Context{Ctx: ctx}, repos.WebhookLogFilter{Endpoint: endpoint, Limit: limit})
}
