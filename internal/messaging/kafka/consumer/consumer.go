package consumer

import (
	"context"
	"errors"
	"io"
	"time"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

const fetchRetryDelay = time.Second

type ReaderFactory func(topic string) MessageReader

// NewReaderFactory builds readers in a consumer group private to this
// process, starting at the newest offset, so every gateway sees every event
// published while it is running and nothing older.
func NewReaderFactory(broker, groupPrefix string) ReaderFactory {
	group := groupPrefix + "-" + uuid.NewString()
	return func(topic string) MessageReader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        []string{broker},
			Topic:          topic,
			GroupID:        group,
			CommitInterval: 0,
			StartOffset:    kafkago.LastOffset,
		})
	}
}

// Subscriber is the events.Subscriber for EVENT_BACKEND=kafka.
type Subscriber struct {
	newReader ReaderFactory
	log       *zap.Logger
}

var _ events.Subscriber = (*Subscriber)(nil)

func NewSubscriber(newReader ReaderFactory, logger ...*zap.Logger) *Subscriber {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Subscriber{newReader: newReader, log: l.Named("kafka.consumer")}
}

// Subscribe commits each message after the handler ran, whether or not the
// handler succeeded.
func (s *Subscriber) Subscribe(ctx context.Context, channel string, h events.Handler) error {
	topic := kafka.TopicFor(channel)
	reader := s.newReader(topic)
	defer reader.Close()

	log := s.log.With(zap.String("topic", topic))
	log.Info("event consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("event consumer stopped")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Error("fetch event failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := h(ctx, msg.Value); err != nil {
			log.Warn("handler failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("commit event failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
