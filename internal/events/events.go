package events

import "context"

// Handler receives one message payload. An error is logged by the
// subscriber and does not stop the subscription.
type Handler func(ctx context.Context, payload []byte) error

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber delivers messages published after the subscription is live.
// Subscribe blocks until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, h Handler) error
}

type Bus interface {
	Publisher
	Subscriber
}
