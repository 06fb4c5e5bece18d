package crm

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookLog is the append-only audit row written for every webhook call.
type WebhookLog struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Endpoint       string         `gorm:"column:endpoint;not null;index" json:"endpoint"`
	Method         string         `gorm:"column:method;not null" json:"method"`
	RequestID      string         `gorm:"column:request_id;index" json:"request_id,omitempty"`
	Payload        datatypes.JSON `gorm:"column:payload" json:"payload"`
	ResponseStatus int            `gorm:"column:response_status;not null" json:"response_status"`
	LatencyMs      int64          `gorm:"column:latency_ms;not null" json:"latency_ms"`
	Error          string         `gorm:"column:error" json:"error,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (WebhookLog) TableName() string { return "webhook_log" }

// AgentMetric captures per-conversation voice agent telemetry.
type AgentMetric struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentName      string         `gorm:"column:agent_name;index" json:"agent_name"`
	ConversationID string         `gorm:"column:conversation_id;index" json:"conversation_id,omitempty"`
	LeadID         *uint          `gorm:"column:lead_id;index" json:"lead_id,omitempty"`
	Metric         string         `gorm:"column:metric;not null;index" json:"metric"`
	Value          float64        `gorm:"column:value;not null;default:0" json:"value"`
	Metadata       datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AgentMetric) TableName() string { return "agent_metric" }

// N8nChatHistory stores chat memory rows posted by n8n workflows.
type N8nChatHistory struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string         `gorm:"column:session_id;not null;index" json:"session_id"`
	Message   datatypes.JSON `gorm:"column:message" json:"message"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (N8nChatHistory) TableName() string { return "n8n_chat_history" }
