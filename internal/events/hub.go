package events

import (
	"Go_Share/internal/logger"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	RoomAdmin  = "admin"
	RoomUpload = "upload"

	sendBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Client is one websocket subscriber.
type Client struct {
	room   string
	fileID uint64
	send   chan []byte
}

// NewClient creates a subscriber for room; fileID filters upload events.
func NewClient(room string, fileID uint64) *Client {
	return &Client{room: room, fileID: fileID, send: make(chan []byte, sendBuffer)}
}

// Messages exposes queued payloads, mostly for tests.
func (c *Client) Messages() <-chan []byte { return c.send }

func (c *Client) wants(ev Event) bool {
	switch ev.Type {
	case TypeUploadProgress:
		return c.room == RoomUpload && c.fileID != 0 && c.fileID == ev.FileID
	case TypeLinkViewed, TypeLinkDownloaded, TypeAdminLog:
		return c.room == RoomAdmin
	}
	return false
}

// Hub keeps the websocket clients of this process.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers ev to local clients. Implements Publisher.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.deliver(ev, payload)
	return nil
}

// deliver never blocks: a client with a full buffer misses the event.
func (h *Hub) deliver(ev Event, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(ev) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			logger.L().Debug("drop event for slow client", zap.String("type", ev.Type))
		}
	}
}

// Serve pumps events to conn until it closes. Client frames are read only
// to process control messages.
func (h *Hub) Serve(conn *websocket.Conn, c *Client) {
	h.Register(c)
	defer h.Unregister(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.L().Debug("websocket read fail", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
