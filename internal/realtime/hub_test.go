package realtime_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go-payroll/internal/events"
	"go-payroll/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error
	closed   bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("not used") }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.written))
	for i, b := range f.written {
		out[i] = string(b)
	}
	return out
}

func TestHub_RegisterSendsWelcome(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	conn := &fakeConn{}

	require.NoError(t, hub.Register(conn))

	assert.Equal(t, []string{`{"message":"Connected to Payroll WS"}`}, conn.messages())
	assert.Equal(t, 1, hub.Count())
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	conns := []*fakeConn{{}, {}, {}}
	for _, c := range conns {
		require.NoError(t, hub.Register(c))
	}

	delivered := hub.Broadcast([]byte(`{"id":"p-1"}`))

	assert.Equal(t, 3, delivered)
	for _, c := range conns {
		assert.Equal(t, `{"id":"p-1"}`, c.messages()[1])
	}
}

func TestHub_LateClientGetsNoReplay(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	early := &fakeConn{}
	require.NoError(t, hub.Register(early))

	assert.Equal(t, 1, hub.Broadcast([]byte(`{"id":"p-1"}`)))

	late := &fakeConn{}
	require.NoError(t, hub.Register(late))
	assert.Equal(t, []string{`{"message":"Connected to Payroll WS"}`}, late.messages())

	assert.Equal(t, 2, hub.Broadcast([]byte(`{"id":"p-2"}`)))
	assert.Equal(t, []string{`{"message":"Connected to Payroll WS"}`, `{"id":"p-2"}`}, late.messages())
	assert.Len(t, early.messages(), 3)
}

func TestHub_FailedWriteRemovesClient(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	healthy := &fakeConn{}
	broken := &fakeConn{}
	require.NoError(t, hub.Register(healthy))
	require.NoError(t, hub.Register(broken))

	broken.mu.Lock()
	broken.writeErr = errors.New("broken pipe")
	broken.mu.Unlock()

	assert.Equal(t, 1, hub.Broadcast([]byte(`{}`)))
	assert.Equal(t, 1, hub.Count())
	assert.True(t, broken.closed)
}

func TestHub_Unregister(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	conn := &fakeConn{}
	require.NoError(t, hub.Register(conn))

	hub.Unregister(conn)

	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 0, hub.Broadcast([]byte(`{}`)))
}

func TestHub_WelcomeFailure(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	conn := &fakeConn{writeErr: errors.New("closed")}

	assert.Error(t, hub.Register(conn))
	assert.Equal(t, 0, hub.Count())
	assert.True(t, conn.closed)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"message":"Connected to Payroll WS"}`, string(msg))
	return ws
}

func TestHub_ServeWSWithEventChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub(zap.NewNop())
	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	bus := events.NewMemoryBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx, bus, events.PayrollChannel) }()
	require.Eventually(t, func() bool { return bus.Subscribers(events.PayrollChannel) == 1 }, time.Second, 5*time.Millisecond)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	clients := []*websocket.Conn{dial(t, url), dial(t, url)}
	require.Equal(t, 2, hub.Count())

	pub := events.NewPayrollPublisher(bus)
	require.NoError(t, pub.PublishGenerated(ctx, events.PayrollGeneratedEvent{
		ID: "p-1", Employee: "emp-1", Period: "2025-01", NetPay: 22833.34,
	}))

	for _, ws := range clients {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := ws.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"p-1","employee":"emp-1","period":"2025-01","netPay":22833.34}`, string(msg))
	}

	require.NoError(t, clients[0].Close())
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
}
