package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"petconnect/internal/middleware"
	"petconnect/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull  = errors.New("server connection limit reached")
	ErrUserFull    = errors.New("user connection limit reached")
	ErrHubShutdown = errors.New("hub is shutting down")

	hubName   = "notifications"
	hubLogger = observability.NewWSLogger(hubName)
)

// Hub maps userID to that user's open sockets on this instance.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name identifies the hub in metrics and logs.
func (h *Hub) Name() string { return hubName }

// Register adds a connection for userID. A nil conn is allowed for tests that
// only inspect the Send channel.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubShutdown
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++

	observability.WebSocketConnectionsTotal.Inc()
	observability.WebSocketEventsTotal.WithLabelValues("connect").Inc()
	hubLogger.LogConnect(context.Background(), userID)
	return client, nil
}

// UnregisterClient removes a client. Calling it twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	if removed {
		client.closeSend()
		observability.WebSocketConnectionsTotal.Dec()
		observability.WebSocketEventsTotal.WithLabelValues("disconnect").Inc()
		hubLogger.LogDisconnect(context.Background(), client.UserID, "unregistered")
	}
}

// Connections returns how many sockets userID has open on this instance.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Broadcast sends message to every connection of userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	if !ok {
		return
	}
	data := []byte(message)
	for c := range clients {
		c.TrySend(data)
	}
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// StartWiring forwards Redis notification channels to this hub's sockets.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == BroadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		userID, err := parseUserChannel(channel)
		if err != nil {
			middleware.Logger.Warn("dropping notification on unknown channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown sends a going-away close frame to every socket and refuses new registrations.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := h.conns
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	// Closing Send makes each WritePump emit a going-away close frame and exit.
	for _, userConns := range conns {
		for client := range userConns {
			client.closeSend()
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	hubLogger.LogLifecycle(ctx, "shutdown", nil)
	return nil
}
