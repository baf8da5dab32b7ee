// Package ws pushes notifications to websocket clients grouped in rooms.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Envelope wraps every message sent to clients.
type Envelope struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

type client struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]bool
}

type message struct {
	rooms   []string
	payload []byte
}

// Hub tracks connected clients and fans notifications out to their rooms.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*client
	broadcast  chan message
	register   chan *client
	unregister chan *client
	done       chan struct{}
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewHub(buffer int, log logrus.FieldLogger) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		clients:    map[string]*client{},
		broadcast:  make(chan message, buffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        log.WithField("component", "ws"),
		now:        time.Now,
	}
}

// Run serves registrations and broadcasts until ctx is done, then drops every client
// and closes done so pending connections give up.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			total := len(h.clients)
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"client": c.id, "total": total}).Debug("client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"client": c.id, "total": total}).Debug("client disconnected")

		case m := <-h.broadcast:
			h.mu.Lock()
			for id, c := range h.clients {
				if !c.inAny(m.rooms) {
					continue
				}
				select {
				case c.send <- m.payload:
				default:
					// slow consumer
					close(c.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues n for delivery. It never blocks; a full queue drops the message.
func (h *Hub) Publish(_ context.Context, n domain.Notification) {
	payload, err := json.Marshal(Envelope{Type: n.Type, Data: n.Data, Timestamp: h.now().Unix()})
	if err != nil {
		h.log.WithError(err).WithField("type", n.Type).Warn("cannot encode notification")
		return
	}
	select {
	case h.broadcast <- message{rooms: n.Rooms, payload: payload}:
	default:
		h.log.WithField("type", n.Type).Warn("notification queue full, dropping")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *client) inAny(rooms []string) bool {
	for _, r := range rooms {
		if c.rooms[r] {
			return true
		}
	}
	return false
}

// RoomsFor returns the rooms a user joins on connect.
func RoomsFor(u domain.User) []string {
	rooms := []string{domain.RoleRoom(u.Role)}
	if u.EnterpriseID != nil {
		rooms = append(rooms, domain.EnterpriseRoom(*u.EnterpriseID))
	}
	return rooms
}

// Authenticator resolves the token passed on the upgrade request.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// Handler upgrades authenticated requests (token in the "token" query parameter).
func (h *Hub) Handler(authn Authenticator, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := authn.Authenticate(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "not authorized"})
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.WithError(err).Debug("upgrade failed")
			return
		}
		c := &client{
			id:    uuid.NewString(),
			conn:  conn,
			send:  make(chan []byte, 64),
			rooms: map[string]bool{},
		}
		for _, room := range RoomsFor(user) {
			c.rooms[room] = true
		}
		select {
		case h.register <- c:
		case <-h.done:
			_ = conn.Close()
			return
		}
		go h.writePump(c)
		go h.readPump(c)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// readPump only keeps the connection alive; clients do not send commands.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).WithField("client", c.id).Debug("read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
