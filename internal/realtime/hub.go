package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/fame-api/internal/monitoring"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 32
)

// Hub keeps one room of WebSocket connections per event and fans events out
// to them. A connection whose send queue is full is dropped.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*wsConn]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

type wsConn struct {
	hub     *Hub
	ws      *websocket.Conn
	eventID string
	send    chan []byte
}

// NewHub creates a hub. allowedOrigins limits browser origins; an empty list
// or "*" allows any origin.
func NewHub(log zerolog.Logger, allowedOrigins []string) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	return &Hub{
		rooms: make(map[string]map[*wsConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || origins[origin]
			},
		},
		log: log.With().Str("component", "realtime_hub").Logger(),
	}
}

// Publish delivers ev to the local room of its event
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.Deliver(ev)
	return nil
}

// Deliver sends ev to every connection in its event room without blocking
func (h *Hub) Deliver(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("type", string(ev.Type)).Msg("Failed to encode event")
		return
	}
	monitoring.TrackRealtimeEvent(string(ev.Type))

	var slow []*wsConn
	h.mu.RLock()
	for c := range h.rooms[ev.EventID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Str("event_id", c.eventID).Msg("Dropping slow realtime client")
		monitoring.RealtimeClientDropped()
		h.unregister(c)
	}
}

// ClientCount returns the number of connections watching an event
func (h *Hub) ClientCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

// ServeWS upgrades the request and joins the connection to the event room
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, eventID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &wsConn{hub: h, ws: ws, eventID: eventID, send: make(chan []byte, sendQueueSize)}
	h.register(c)

	go c.writePump()
	go c.readPump()
	return nil
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*wsConn
	for _, room := range h.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *wsConn) {
	h.mu.Lock()
	room, ok := h.rooms[c.eventID]
	if !ok {
		room = make(map[*wsConn]struct{})
		h.rooms[c.eventID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	monitoring.RealtimeClientConnected()
	h.log.Debug().Str("event_id", c.eventID).Msg("Realtime client connected")
}

// unregister removes c and closes its send queue exactly once
func (h *Hub) unregister(c *wsConn) {
	h.mu.Lock()
	room := h.rooms[c.eventID]
	if _, ok := room[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.eventID)
	}
	close(c.send)
	h.mu.Unlock()

	monitoring.RealtimeClientDisconnected()
	h.log.Debug().Str("event_id", c.eventID).Msg("Realtime client disconnected")
}

// readPump discards client messages and keeps the pong deadline fresh
func (c *wsConn) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
