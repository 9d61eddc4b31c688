package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Spectator streams are read-only and carry no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the envelope pushed to spectators.
type wsMessage struct {
	Type    string       `json:"type"`
	MatchID string       `json:"match_id"`
	Events  []game.Event `json:"events,omitempty"`
}

// Client is one websocket spectator subscribed to a match.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	matchID string
}

// Hub fans match events out to websocket spectators. All subscription
// state is owned by the run loop; handlers talk to it over channels.
type Hub struct {
	logger     *zap.Logger
	metrics    *Metrics
	register   chan *Client
	unregister chan *Client
	broadcast  chan wsMessage
	clients    map[string]map[*Client]bool
}

// NewHub creates a hub; call Run in its own goroutine.
func NewHub(logger *zap.Logger, metrics *Metrics) *Hub {
	return &Hub{
		logger:     logger,
		metrics:    metrics,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan wsMessage, 64),
		clients:    make(map[string]map[*Client]bool),
	}
}

// Run owns the subscription map until the context of the server ends.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.matchID] == nil {
				h.clients[client.matchID] = make(map[*Client]bool)
			}
			h.clients[client.matchID][client] = true
			if h.metrics != nil {
				h.metrics.wsClients.Inc()
			}
			h.logger.Debug("spectator connected", zap.String("match_id", client.matchID))

		case client := <-h.unregister:
			if subs := h.clients[client.matchID]; subs[client] {
				delete(subs, client)
				close(client.send)
				if len(subs) == 0 {
					delete(h.clients, client.matchID)
				}
				if h.metrics != nil {
					h.metrics.wsClients.Dec()
				}
			}

		case msg := <-h.broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("failed to marshal broadcast", zap.Error(err))
				continue
			}
			for client := range h.clients[msg.MatchID] {
				select {
				case client.send <- payload:
				default:
					// Slow consumer: drop it rather than stall the hub.
					delete(h.clients[msg.MatchID], client)
					close(client.send)
					if h.metrics != nil {
						h.metrics.wsClients.Dec()
					}
				}
			}
		}
	}
}

// BroadcastEvents pushes an event batch to every spectator of a match.
func (h *Hub) BroadcastEvents(matchID string, events []game.Event) {
	if len(events) == 0 {
		return
	}
	h.broadcast <- wsMessage{Type: "events", MatchID: matchID, Events: events}
}

// ServeWS upgrades an HTTP request into a spectator connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, matchID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 32),
		matchID: matchID,
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so control frames are processed and
// disconnects are noticed. Spectators send nothing meaningful.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump serializes all writes to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
