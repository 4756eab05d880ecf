package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	logger.InitializeForTest()
	os.Exit(m.Run())
}

func TestNewHub(t *testing.T) {
	hub := NewHub(0)
	assert.Equal(t, DefaultHeartbeatInterval, hub.HeartbeatInterval())
	assert.Equal(t, Stats{ClientsByUser: map[string]int{}}, hub.Stats())
}

func TestRegisterAssignsClientIDs(t *testing.T) {
	hub := NewHub(time.Second)

	a := hub.Register("u1", TransportSSE)
	b := hub.Register("u1", TransportSSE)

	assert.Regexp(t, `^client_\d+_\d+$`, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, hub.IsUserOnline("u1"))
	assert.False(t, hub.IsUserOnline("u2"))
}

func TestDispatchToUser(t *testing.T) {
	hub := NewHub(time.Second)
	hub.Register("u1", TransportSSE)
	hub.Register("u1", TransportWebSocket)
	hub.Register("u2", TransportSSE)

	assert.Equal(t, 2, hub.DispatchToUser("u1", EventUnreadCount, map[string]int{"count": 3}))
	assert.Equal(t, 1, hub.DispatchToUser("u2", EventUnreadCount, map[string]int{"count": 1}))
	assert.Equal(t, 0, hub.DispatchToUser("nobody", EventUnreadCount, map[string]int{"count": 0}))
}

func TestDispatchDropsClientWithFullBuffer(t *testing.T) {
	hub := NewHub(time.Second)
	slow := hub.Register("u1", TransportSSE)

	for i := 0; i < sendBufferSize; i++ {
		require.Equal(t, 1, hub.DispatchToUser("u1", EventNotification, i))
	}

	assert.Equal(t, 0, hub.DispatchToUser("u1", EventNotification, "overflow"))
	assert.False(t, hub.IsUserOnline("u1"))
	assert.Equal(t, int64(1), hub.GetMetrics()["clients_dropped"])

	select {
	case <-slow.Done():
	default:
		t.Fatal("dropped client should be closed")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(time.Second)
	client := hub.Register("u1", TransportSSE)

	assert.True(t, hub.Unregister(client))
	assert.False(t, hub.Unregister(client))
	assert.False(t, client.Send(EventHeartbeat, nil))
	assert.Equal(t, 0, hub.Stats().TotalUsers)
}

func TestStats(t *testing.T) {
	hub := NewHub(time.Second)
	hub.Register("u1", TransportSSE)
	hub.Register("u1", TransportSSE)
	hub.Register("u2", TransportWebSocket)

	stats := hub.Stats()
	assert.Equal(t, 3, stats.TotalClients)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, map[string]int{"u1": 2, "u2": 1}, stats.ClientsByUser)

	hub.ClearAll()
	assert.Equal(t, 0, hub.Stats().TotalClients)
}

func TestEventSSEFrame(t *testing.T) {
	frame, err := Event{Name: EventUnreadCount, Data: map[string]int{"count": 4}}.SSE()
	require.NoError(t, err)
	assert.Equal(t, "event: unread_count\ndata: {\"count\":4}\n\n", string(frame))
}

func TestServeSSE(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(time.Hour)
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/notifications/stream?userId=u1", nil).WithContext(ctx)

	connected := make(chan *Client, 1)
	done := make(chan error, 1)
	go func() {
		done <- hub.ServeSSE(rec, req, "u1", func(c *Client) {
			c.Send(EventUnreadCount, map[string]int{"count": 2})
			connected <- c
		})
	}()

	<-connected
	assert.Equal(t, 1, hub.DispatchToUser("u1", EventNotification, map[string]string{"id": "n1"}))
	hub.ClearAll()

	require.NoError(t, <-done)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-transform", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	body := rec.Body.String()
	connIdx := strings.Index(body, "event: connected\n")
	countIdx := strings.Index(body, "event: unread_count\ndata: {\"count\":2}\n\n")
	notifIdx := strings.Index(body, "event: notification\ndata: {\"id\":\"n1\"}\n\n")
	require.True(t, connIdx >= 0 && countIdx >= 0 && notifIdx >= 0, body)
	assert.Less(t, connIdx, countIdx)
	assert.Less(t, countIdx, notifIdx)
	assert.Contains(t, body, `"userId":"u1"`)
}

func TestServeSSEHeartbeat(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(10 * time.Millisecond)
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/notifications/stream", nil).WithContext(ctx)

	require.NoError(t, hub.ServeSSE(rec, req, "u1", nil))
	assert.Contains(t, rec.Body.String(), "event: heartbeat\n")
	assert.False(t, hub.IsUserOnline("u1"))
}

func TestServeSSEStopsOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(time.Hour)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications/stream", nil)

	connected := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- hub.ServeSSE(rec, req, "u1", func(*Client) { close(connected) })
	}()

	<-connected
	hub.Shutdown()
	require.NoError(t, <-done)
}

func TestServeWS(t *testing.T) {
	hub := NewHub(time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, r.URL.Query().Get("userId"), func(c *Client) {
			c.Send(EventUnreadCount, map[string]int{"count": 5})
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?userId=u9", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var ev struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, EventConnected, ev.Event)
	assert.Equal(t, "u9", ev.Data["userId"])

	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, EventUnreadCount, ev.Event)
	assert.Equal(t, float64(5), ev.Data["count"])

	require.Eventually(t, func() bool {
		return hub.DispatchToUser("u9", EventNotification, map[string]string{"id": "n2"}) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, EventNotification, ev.Event)
	assert.Equal(t, "n2", ev.Data["id"])

	conn.Close(websocket.StatusNormalClosure, "bye")
	require.Eventually(t, func() bool { return !hub.IsUserOnline("u9") }, 2*time.Second, 10*time.Millisecond)
}
