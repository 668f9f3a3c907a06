// Package websocket pushes artist lifecycle events to connected moderators.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"musicsocial/internal/auth"
	"musicsocial/internal/logger"
	"musicsocial/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SubscribePermission is required to open an event stream.
const SubscribePermission = "artist.read_all"

const sendBuffer = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	log        *logger.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Global()
	}
	return &Hub{
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		log:        log.WithComponent("websocket"),
	}
}

// Run dispatches hub events until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PublishArtistEvent queues event for every client. It never blocks; a full queue drops the event.
func (h *Hub) PublishArtistEvent(event model.ArtistEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode artist event", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("broadcast queue full, dropping event", logger.Fields("event", event.Event, "artist_id", event.ArtistID))
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection so close frames are noticed.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("read failed", logger.Fields(logger.FieldError, err.Error()))
			}
			break
		}
	}
}

// Authorizer checks a caller's roles against required permissions.
type Authorizer interface {
	Authorize(ctx context.Context, roleNames, required []string) ([]string, error)
}

// Handler upgrades authorized requests. The token travels in the `token` query parameter since
// browsers cannot set headers on a websocket handshake.
func Handler(hub *Hub, tokens *auth.TokenManager, authz Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			hub.log.Debug("connection rejected: missing token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		id, err := tokens.Parse(raw)
		if err != nil {
			hub.log.Debug("connection rejected: invalid token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if _, err := authz.Authorize(c.Request.Context(), id.Roles, []string{SubscribePermission}); err != nil {
			hub.log.Debug("connection rejected", logger.Fields(logger.FieldUserID, id.UserID, logger.FieldError, err.Error()))
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("upgrade failed", logger.Fields(logger.FieldError, err.Error()))
			return
		}
		client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, sendBuffer)}
		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
