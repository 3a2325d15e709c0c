package realtime

import (
	"context"

	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type Emitter interface {
	Emit(ctx context.Context, msg SSEMessage)
}

type HubEmitter struct{ Hub *SSEHub }

func (e *HubEmitter) Emit(_ context.Context, msg SSEMessage) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}

// Publisher is the subset of a bus an emitter needs.
type Publisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

type BusEmitter struct {
	Bus Publisher
	Log *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg SSEMessage) {
	if e == nil || e.Bus == nil {
		return
	}
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("Realtime publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
	}
}
