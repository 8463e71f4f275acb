package ws

import (
	"context"
	"doraform/internal/form"
	"doraform/internal/logger"
	"doraform/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// SessionViewer resolves a session's current view; FormService satisfies it.
type SessionViewer interface {
	View(ctx context.Context, id string) (form.View, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	sessions SessionViewer
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewHandler creates a new WebSocket handler. An empty allowedOrigins list
// accepts any origin.
func NewHandler(hub *Hub, sessions SessionViewer, allowedOrigins []string, log *logger.Logger) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		log:      log.With("component", "ws.Handler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// SessionWS handles GET /v1/ws/sessions/{id}. The first frame carries the
// current view; later frames are the session's events.
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, err := h.sessions.View(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, service.ErrQuestionnaireChanged) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "session_id", id, "error", err)
		return
	}

	conn := &Connection{
		SessionID: id,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}

	if hello, err := encode(MsgConnected, view); err == nil {
		conn.Send <- hello
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func encode(t MessageType, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: t, Payload: data})
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", "session_id", conn.SessionID, "error", err)
			}
			break
		}
		// Inbound frames are ignored; mutations go through the REST API.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
