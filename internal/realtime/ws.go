package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"go.uber.org/zap"
)

// Time allowed to write a frame to the peer
const writeWait = 10 * time.Second

// ServeWS upgrades the request and pushes the same event stream as ServeSSE,
// one JSON {event, data} text frame per event. Incoming frames are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string, onConnect OnConnect) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	// CloseRead consumes control frames and cancels ctx when the peer goes away
	ctx := conn.CloseRead(r.Context())

	client := h.Register(userID, TransportWebSocket)
	defer h.Unregister(client)

	client.Send(EventConnected, connectedPayload(client))
	if onConnect != nil {
		onConnect(client)
	}

	write := func(ev Event) error {
		wctx, cancel := context.WithTimeout(ctx, writeWait)
		defer cancel()
		if err := wsjson.Write(wctx, conn, ev); err != nil {
			return err
		}
		metrics.Get().App.RealtimeEventsSent.WithLabelValues(ev.Name).Inc()
		return nil
	}

	closeWith := func(status websocket.StatusCode, reason string) error {
		for _, ev := range client.pending() {
			if err := write(ev); err != nil {
				return err
			}
		}
		return conn.Close(status, reason)
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return closeWith(websocket.StatusNormalClosure, "closing")
		case <-h.Done():
			return closeWith(websocket.StatusGoingAway, "server shutdown")
		case ev := <-client.send:
			if err := write(ev); err != nil {
				if ctx.Err() == nil {
					logger.Log.Warn("WebSocket write failed", logger.WithClientID(client.ID), zap.Error(err))
				}
				return err
			}
		case <-ticker.C:
			if err := write(Event{Name: EventHeartbeat, Data: heartbeatPayload()}); err != nil {
				return err
			}
		}
	}
}
