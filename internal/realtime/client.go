package realtime

import (
	"encoding/json"
	"sync"
	"time"
)

// Transport identifies how a client is connected
type Transport string

const (
	TransportSSE       Transport = "sse"
	TransportWebSocket Transport = "websocket"
)

const sendBufferSize = 64

// Event is one named payload pushed to a client
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// SSE encodes the event as a text/event-stream frame
func (e Event) SSE() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(e.Name)+len(data)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, e.Name...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// Client is a single push connection of a user
type Client struct {
	ID          string
	UserID      string
	Transport   Transport
	ConnectedAt time.Time

	send chan Event
	done chan struct{}
	once sync.Once
}

func newClient(id, userID string, transport Transport) *Client {
	return &Client{
		ID:          id,
		UserID:      userID,
		Transport:   transport,
		ConnectedAt: time.Now().UTC(),
		send:        make(chan Event, sendBufferSize),
		done:        make(chan struct{}),
	}
}

// Send queues an event for this client only
func (c *Client) Send(event string, data interface{}) bool {
	return c.enqueue(Event{Name: event, Data: data})
}

func (c *Client) enqueue(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Done is closed once the hub has removed the client
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// pending returns the events still buffered without blocking
func (c *Client) pending() []Event {
	var out []Event
	for {
		select {
		case ev := <-c.send:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func connectedPayload(c *Client) map[string]interface{} {
	return map[string]interface{}{
		"clientId":  c.ID,
		"userId":    c.UserID,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func heartbeatPayload() map[string]interface{} {
	return map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
}
