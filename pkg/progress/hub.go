package progress

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pilotlabs/webops/pkg/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // API is expected to sit behind a trusted proxy
	},
}

// DiscoveryUpdate is the wire format for discovery phase events.
type DiscoveryUpdate struct {
	Type      string `json:"type"` // always "discovery_update"
	ServiceID string `json:"service_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ExecutionLog is the wire format for execution log events.
type ExecutionLog struct {
	Type      string `json:"type"` // always "execution_log"
	ServiceID string `json:"service_id,omitempty"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Hub broadcasts progress events to all connected WebSocket clients.
// It implements Sink.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  *logging.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	logger, _ := logging.NewLogger("ws-hub")
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// ServeWS upgrades the request to a WebSocket connection and registers it
// with the hub. The connection stays registered until the peer disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Drain the reader so close frames and pings are processed; the hub
	// never acts on inbound messages.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(v); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// SendDiscoveryUpdate broadcasts a discovery phase event.
func (h *Hub) SendDiscoveryUpdate(serviceID, status string, progress int, message string) {
	h.broadcast(DiscoveryUpdate{
		Type:      "discovery_update",
		ServiceID: serviceID,
		Status:    status,
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// SendExecutionLog broadcasts an execution log event.
func (h *Hub) SendExecutionLog(serviceID, level, message string) {
	h.broadcast(ExecutionLog{
		Type:      "execution_log",
		ServiceID: serviceID,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}
