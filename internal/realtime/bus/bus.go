// Package bus fans realtime messages out across processes so a worker's job
// events reach the SSE clients connected to any API instance.
package bus

import (
	"context"
	"fmt"
	"strings"

	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

const (
	KindMemory = "memory"
	KindRedis  = "redis"
	KindNATS   = "nats"
)

type Config struct {
	Kind         string
	RedisAddr    string
	RedisChannel string
	NATSURL      string
	NATSSubject  string
}

// New builds the configured bus. An empty kind is the in-process bus.
func New(log *logger.Logger, cfg Config) (Bus, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindMemory:
		return NewMemoryBus(), nil
	case KindRedis:
		return NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
	case KindNATS:
		return NewNATSBus(log, cfg.NATSURL, cfg.NATSSubject)
	default:
		return nil, fmt.Errorf("unknown realtime bus %q", cfg.Kind)
	}
}
