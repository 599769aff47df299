package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const memoryBuffer = 64

// MemoryBus is an in-process Bus. A subscriber whose buffer is full misses
// the message.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
	log  *zap.Logger
}

func NewMemoryBus(logger ...*zap.Logger) *MemoryBus {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &MemoryBus{
		subs: make(map[string]map[chan []byte]struct{}),
		log:  l.Named("events.memory"),
	}
}

func (b *MemoryBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[channel] {
		msg := append([]byte(nil), payload...)
		select {
		case ch <- msg:
		default:
			b.log.Warn("subscriber buffer full, message dropped", zap.String("channel", channel))
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string, h Handler) error {
	ch := make(chan []byte, memoryBuffer)

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan []byte]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs[channel], ch)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			if err := h(ctx, msg); err != nil {
				b.log.Warn("handler failed", zap.String("channel", channel), zap.Error(err))
			}
		}
	}
}

// Subscribers counts live subscriptions on channel.
func (b *MemoryBus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}
