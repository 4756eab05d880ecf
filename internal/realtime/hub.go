// Package realtime keeps the registry of connected push clients and delivers
// notification events to them over SSE or WebSocket.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"go.uber.org/zap"
)

// Event names pushed to clients
const (
	EventConnected    = "connected"
	EventNotification = "notification"
	EventUnreadCount  = "unread_count"
	EventHeartbeat    = "heartbeat"
)

// DefaultHeartbeatInterval is used when the hub is built with a zero interval
const DefaultHeartbeatInterval = 30 * time.Second

// Dispatcher is the part of the hub the notification service depends on
type Dispatcher interface {
	DispatchToUser(userID, event string, data interface{}) int
}

// Hub maintains the connected clients of every user
type Hub struct {
	// Clients by user ID
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	heartbeat time.Duration
	counter   atomic.Int64
	metrics   *Metrics

	ctx    context.Context
	cancel context.CancelFunc
}

// Metrics tracks hub statistics
type Metrics struct {
	TotalConnections  atomic.Int64
	ActiveConnections atomic.Int64
	EventsSent        atomic.Int64
	ClientsDropped    atomic.Int64
}

// Stats is the snapshot returned by Stats
type Stats struct {
	TotalClients  int            `json:"totalClients"`
	TotalUsers    int            `json:"totalUsers"`
	ClientsByUser map[string]int `json:"clientsByUser"`
}

// NewHub creates a hub. A zero heartbeat uses DefaultHeartbeatInterval.
func NewHub(heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:   make(map[string]map[*Client]struct{}),
		heartbeat: heartbeat,
		metrics:   &Metrics{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// HeartbeatInterval returns the keep-alive period of each stream
func (h *Hub) HeartbeatInterval() time.Duration {
	return h.heartbeat
}

// Done is closed when the hub shuts down
func (h *Hub) Done() <-chan struct{} {
	return h.ctx.Done()
}

func (h *Hub) nextClientID() string {
	return fmt.Sprintf("client_%d_%d", time.Now().UnixMilli(), h.counter.Add(1))
}

// Register adds a new client for userID and returns it
func (h *Hub) Register(userID string, transport Transport) *Client {
	client := newClient(h.nextClientID(), userID, transport)

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
	perUser := len(h.clients[userID])
	h.mu.Unlock()

	h.metrics.TotalConnections.Add(1)
	h.metrics.ActiveConnections.Add(1)
	metrics.Get().App.RealtimeClients.WithLabelValues(string(transport)).Inc()

	logger.Log.Info("Realtime client connected",
		logger.WithClientID(client.ID),
		logger.WithUserID(userID),
		zap.String("transport", string(transport)),
		zap.Int("user_clients", perUser))

	return client
}

// Unregister removes a client. It is safe to call more than once.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	removed := h.removeLocked(client)
	h.mu.Unlock()

	if removed {
		logger.Log.Info("Realtime client disconnected",
			logger.WithClientID(client.ID),
			logger.WithUserID(client.UserID))
	}
	return removed
}

func (h *Hub) removeLocked(client *Client) bool {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return false
	}
	if _, ok := clients[client]; !ok {
		return false
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
	client.close()

	h.metrics.ActiveConnections.Add(-1)
	metrics.Get().App.RealtimeClients.WithLabelValues(string(client.Transport)).Dec()
	return true
}

// DispatchToUser queues an event for every client of userID and returns how
// many clients accepted it. Clients with a full buffer are removed.
func (h *Hub) DispatchToUser(userID, event string, data interface{}) int {
	ev := Event{Name: event, Data: data}

	var (
		delivered int
		stale     []*Client
	)

	h.mu.RLock()
	for client := range h.clients[userID] {
		if client.enqueue(ev) {
			delivered++
		} else {
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	if len(stale) > 0 {
		h.mu.Lock()
		for _, client := range stale {
			if h.removeLocked(client) {
				h.metrics.ClientsDropped.Add(1)
				metrics.Get().App.RealtimeDropped.Inc()
				logger.Log.Warn("Dropping realtime client with full buffer",
					logger.WithClientID(client.ID),
					logger.WithUserID(userID))
			}
		}
		h.mu.Unlock()
	}

	if delivered > 0 {
		h.metrics.EventsSent.Add(int64(delivered))
		metrics.Get().App.NotificationsDispatched.WithLabelValues(event).Add(float64(delivered))
	}

	logger.DebugWithFields("Realtime dispatch",
		logger.WithUserID(userID),
		zap.String("event", event),
		zap.Int("delivered", delivered))

	return delivered
}

// IsUserOnline reports whether userID has at least one client
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Stats returns the connected client counts
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{
		TotalUsers:    len(h.clients),
		ClientsByUser: make(map[string]int, len(h.clients)),
	}
	for userID, clients := range h.clients {
		stats.ClientsByUser[userID] = len(clients)
		stats.TotalClients += len(clients)
	}
	return stats
}

// GetMetrics returns a copy of the hub counters
func (h *Hub) GetMetrics() map[string]int64 {
	return map[string]int64{
		"total_connections":  h.metrics.TotalConnections.Load(),
		"active_connections": h.metrics.ActiveConnections.Load(),
		"events_sent":        h.metrics.EventsSent.Load(),
		"clients_dropped":    h.metrics.ClientsDropped.Load(),
	}
}

// ClearAll disconnects every client
func (h *Hub) ClearAll() {
	h.mu.Lock()
	var n int
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
			n++
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	logger.Log.Info("All realtime clients cleared", zap.Int("clients", n))
}

// Shutdown disconnects all clients and stops every open stream
func (h *Hub) Shutdown() {
	h.ClearAll()
	h.cancel()
}
