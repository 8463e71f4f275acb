package ws

import (
	"doraform/internal/logger"
	"encoding/json"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// MsgConnected is the first frame on every socket and carries the current view.
// Later frames use the event names of the form service (session.state, ...).
const MsgConnected MessageType = "connected"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans session events out to every socket watching that session.
type Hub struct {
	// sessionID -> connections
	conns map[string]map[*Connection]struct{}

	mu  sync.RWMutex
	log *logger.Logger

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
	done       chan struct{}
	stopOnce   sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		log:        log.With("component", "ws.Hub"),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string, 16),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id := range h.conns {
				h.closeSessionLocked(id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("socket connected", "session_id", conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.SessionID]; ok {
				if _, ok := set[conn]; ok {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.SessionID)
					}
					h.log.Debug("socket disconnected", "session_id", conn.SessionID)
				}
			}
			h.mu.Unlock()

		case id := <-h.disconnect:
			h.mu.Lock()
			h.closeSessionLocked(id)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Warn("dropping unencodable message", "session_id", msg.SessionID, "error", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) closeSessionLocked(id string) {
	for conn := range h.conns[id] {
		close(conn.Send)
	}
	delete(h.conns, id)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Connections reports how many sockets watch a session.
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// BroadcastToSession sends an event to every socket on a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("failed to encode payload", "session_id", sessionID, "type", msgType, "error", err)
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	case <-h.done:
	}
}

// DisconnectSession closes every socket on a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.disconnect <- sessionID:
	case <-h.done:
	}
}

// Stop closes all sockets and ends the run loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
