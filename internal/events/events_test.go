package events_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go-payroll/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (r *recorder) handle(_ context.Context, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, payload)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestMemoryBus_FanOut(t *testing.T) {
	bus := events.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recs := []*recorder{{}, {}, {}}
	var wg sync.WaitGroup
	for _, r := range recs {
		wg.Add(1)
		go func(r *recorder) {
			defer wg.Done()
			_ = bus.Subscribe(ctx, events.PayrollChannel, r.handle)
		}(r)
	}
	require.Eventually(t, func() bool { return bus.Subscribers(events.PayrollChannel) == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, events.PayrollChannel, []byte(`{"id":"p-1"}`)))
	require.NoError(t, bus.Publish(ctx, "other:channel", []byte(`ignored`)))

	for _, r := range recs {
		assert.Eventually(t, func() bool { return r.count() == 1 }, time.Second, 5*time.Millisecond)
	}

	cancel()
	wg.Wait()
	assert.Zero(t, bus.Subscribers(events.PayrollChannel))
}

func TestMemoryBus_LateSubscriberMissesEarlierMessages(t *testing.T) {
	bus := events.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	early := &recorder{}
	go func() { _ = bus.Subscribe(ctx, events.PayrollChannel, early.handle) }()
	require.Eventually(t, func() bool { return bus.Subscribers(events.PayrollChannel) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, events.PayrollChannel, []byte(`{"id":"p-1"}`)))
	require.Eventually(t, func() bool { return early.count() == 1 }, time.Second, 5*time.Millisecond)

	late := &recorder{}
	go func() { _ = bus.Subscribe(ctx, events.PayrollChannel, late.handle) }()
	require.Eventually(t, func() bool { return bus.Subscribers(events.PayrollChannel) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, events.PayrollChannel, []byte(`{"id":"p-2"}`)))
	require.Eventually(t, func() bool { return early.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return late.count() == 1 }, time.Second, 5*time.Millisecond)

	late.mu.Lock()
	defer late.mu.Unlock()
	assert.JSONEq(t, `{"id":"p-2"}`, string(late.msgs[0]))
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := events.NewMemoryBus()
	assert.NoError(t, bus.Publish(context.Background(), events.PayrollChannel, []byte("x")))
}

func TestPayrollPublisher(t *testing.T) {
	bus := events.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []byte, 1)
	go func() {
		_ = bus.Subscribe(ctx, events.PayrollChannel, func(_ context.Context, p []byte) error {
			got <- p
			return nil
		})
	}()
	require.Eventually(t, func() bool { return bus.Subscribers(events.PayrollChannel) == 1 }, time.Second, 5*time.Millisecond)

	pub := events.NewPayrollPublisher(bus)
	require.NoError(t, pub.PublishGenerated(ctx, events.PayrollGeneratedEvent{
		ID: "p-1", Employee: "e-1", Period: "2025-01", NetPay: 22833.33,
	}))

	select {
	case p := <-got:
		var body map[string]any
		require.NoError(t, json.Unmarshal(p, &body))
		assert.Equal(t, map[string]any{"id": "p-1", "employee": "e-1", "period": "2025-01", "netPay": 22833.33}, body)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}
