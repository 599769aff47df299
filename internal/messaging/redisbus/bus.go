package redisbus

import (
	"context"
	"fmt"

	"go-payroll/internal/events"
	"go-payroll/internal/shared/apperror"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus is an events.Bus over Redis PUBLISH/SUBSCRIBE. Delivery is
// at-most-once: a subscriber that is not connected misses the message.
type Bus struct {
	rdb redis.UniversalClient
	log *zap.Logger
}

var _ events.Bus = (*Bus)(nil)

func New(rdb redis.UniversalClient, logger ...*zap.Logger) *Bus {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Bus{rdb: rdb, log: l.Named("events.redis")}
}

func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return apperror.Transient(err, "event channel unavailable")
	}
	return nil
}

// Subscribe blocks until ctx is done. It fails fast when the subscription
// cannot be established.
func (b *Bus) Subscribe(ctx context.Context, channel string, h events.Handler) error {
	sub := b.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return apperror.Transient(fmt.Errorf("subscribe %s: %w", channel, err), "event channel unavailable")
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := h(ctx, []byte(msg.Payload)); err != nil {
				b.log.Warn("handler failed", zap.String("channel", channel), zap.Error(err))
			}
		}
	}
}
