package producer_test

import (
	"context"
	"errors"
	"testing"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka/producer"
	"go-payroll/internal/shared/apperror"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	t.Run("payroll channel goes to the generated topic", func(t *testing.T) {
		w := &fakeWriter{}
		pub := events.NewPayrollPublisher(producer.NewPublisher(w, zap.NewNop()))

		err := pub.PublishGenerated(context.Background(), events.PayrollGeneratedEvent{ID: "p-1", NetPay: 10})

		require.NoError(t, err)
		require.Len(t, w.msgs, 1)
		msg := w.msgs[0]
		assert.Equal(t, events.PayrollGeneratedTopic, msg.Topic)
		assert.Equal(t, []byte(events.PayrollChannel), msg.Key)
		assert.JSONEq(t, `{"id":"p-1","employee":"","period":"","netPay":10}`, string(msg.Value))
		assert.Equal(t, "event_channel", msg.Headers[0].Key)
	})

	t.Run("unmapped channel", func(t *testing.T) {
		w := &fakeWriter{}
		require.NoError(t, producer.NewPublisher(w, zap.NewNop()).Publish(context.Background(), "audit:log", []byte(`{}`)))
		assert.Equal(t, "audit.log", w.msgs[0].Topic)
	})

	t.Run("broker down", func(t *testing.T) {
		w := &fakeWriter{err: errors.New("dial tcp: connection refused")}

		err := producer.NewPublisher(w, zap.NewNop()).Publish(context.Background(), events.PayrollChannel, []byte(`{}`))

		assert.True(t, apperror.IsTransient(err))
	})
}
