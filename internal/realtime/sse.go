package realtime

import (
	"errors"
	"net/http"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"go.uber.org/zap"
)

// ErrStreamingUnsupported is returned when the writer cannot flush
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// OnConnect runs once the connected event has been queued for a new client
type OnConnect func(client *Client)

// ServeSSE registers a client for userID and streams its events until the
// request ends, the client is removed or the hub shuts down.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, userID string, onConnect OnConnect) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache, no-transform")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := h.Register(userID, TransportSSE)
	defer h.Unregister(client)

	client.Send(EventConnected, connectedPayload(client))
	if onConnect != nil {
		onConnect(client)
	}

	write := func(ev Event) error {
		frame, err := ev.SSE()
		if err != nil {
			logger.Log.Error("Failed to encode SSE event", zap.String("event", ev.Name), zap.Error(err))
			return nil
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
		flusher.Flush()
		metrics.Get().App.RealtimeEventsSent.WithLabelValues(ev.Name).Inc()
		return nil
	}

	drain := func() error {
		for _, ev := range client.pending() {
			if err := write(ev); err != nil {
				return err
			}
		}
		return nil
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return nil
		case <-client.Done():
			return drain()
		case <-h.Done():
			return drain()
		case ev := <-client.send:
			if err := write(ev); err != nil {
				logger.Log.Warn("SSE write failed", logger.WithClientID(client.ID), zap.Error(err))
				return err
			}
		case <-ticker.C:
			if err := write(Event{Name: EventHeartbeat, Data: heartbeatPayload()}); err != nil {
				logger.Log.Warn("SSE heartbeat failed", logger.WithClientID(client.ID), zap.Error(err))
				return err
			}
		}
	}
}
