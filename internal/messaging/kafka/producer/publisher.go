package producer

import (
	"context"
	"time"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/shared/apperror"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is satisfied by *kafkago.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Publisher is the events.Publisher for EVENT_BACKEND=kafka.
type Publisher struct {
	writer MessageWriter
	now    func() time.Time
	log    *zap.Logger
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(writer MessageWriter, logger ...*zap.Logger) *Publisher {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Publisher{writer: writer, now: time.Now, log: l.Named("kafka.producer")}
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	msg := kafkago.Message{
		Topic: kafka.TopicFor(channel),
		Key:   []byte(channel),
		Value: payload,
		Time:  p.now().UTC(),
		Headers: []kafkago.Header{
			{Key: "event_channel", Value: []byte(channel)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("publish event failed", zap.String("topic", msg.Topic), zap.Error(err))
		return apperror.Transient(err, "event channel unavailable")
	}
	return nil
}
