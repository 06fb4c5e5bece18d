package realtime

import (
	"context"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/ctxutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

// Publisher fans a message out to every replica. bus.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

// Emitter is what services use to announce CRM changes. It never fails the
// caller.
type Emitter interface {
	Emit(ctx context.Context, event SSEEvent, data any)
}

type emitter struct {
	log     *logger.Logger
	hub     *SSEHub
	pub     Publisher
	channel string
}

// NewEmitter broadcasts through pub when set, otherwise straight to the local
// hub. With a publisher, delivery to the local hub happens via the bus
// forwarder.
func NewEmitter(log *logger.Logger, hub *SSEHub, pub Publisher, channel string) Emitter {
	if channel == "" {
		channel = DefaultChannel
	}
	return &emitter{log: log.With("component", "Emitter"), hub: hub, pub: pub, channel: channel}
}

func (e *emitter) Emit(ctx context.Context, event SSEEvent, data any) {
	msg := SSEMessage{Channel: e.channel, Event: event, Data: data}
	if e.pub != nil {
		err := e.pub.Publish(ctxutil.Default(ctx), msg)
		if err == nil {
			return
		}
		e.log.Warn("bus publish failed; broadcasting locally", "event", event, "error", err)
	}
	if e.hub != nil {
		e.hub.Broadcast(msg)
	}
}

// NopEmitter discards events.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, SSEEvent, any) {}
