package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizai/logger"
)

const (
	EventQuizGenerated       = "quiz.generated"
	EventQuizRegenerated     = "quiz.regenerated"
	EventQuizRenamed         = "quiz.renamed"
	EventQuizDeleted         = "quiz.deleted"
	EventQuizShared          = "quiz.shared"
	EventQuestionRegenerated = "question.regenerated"
	EventQuestionDeleted     = "question.deleted"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Publisher delivers quiz events to a user's live connections.
type Publisher interface {
	Publish(userID uuid.UUID, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(uuid.UUID, string, interface{}) {}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	log        *logger.Logger
}

type Client struct {
	hub    *Hub
	id     string
	userID uuid.UUID
	socket *websocket.Conn
	send   chan []byte
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With("component", "hub"),
	}
}

// Run owns client registration until ctx is cancelled, then closes every
// remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("client registered", "client", client.id, "user_id", client.userID, "total", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			h.drop(client)
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("client unregistered", "client", client.id, "user_id", client.userID, "total", total)

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// drop removes client and closes its send channel. Callers hold the write
// lock.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Publish sends an event to every connection of userID. A connection whose
// buffer is full is dropped.
func (h *Hub) Publish(userID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		h.log.Error("marshal event", "type", eventType, "error", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	sent := 0
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- data:
			sent++
		default:
			h.log.Warn("client send buffer full, closing connection", "client", client.id, "user_id", userID)
			h.drop(client)
		}
	}
	h.log.Debug("event published", "type", eventType, "user_id", userID, "clients", sent)
}

// ConnectedClients counts the live connections of userID.
func (h *Hub) ConnectedClients(userID uuid.UUID) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	n := 0
	for client := range h.clients {
		if client.userID == userID {
			n++
		}
	}
	return n
}

// RegisterClient attaches an upgraded connection to the hub and starts its
// pumps. It returns nil when the hub has stopped.
func (h *Hub) RegisterClient(conn *websocket.Conn, userID uuid.UUID) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		userID: userID,
		socket: conn,
		send:   make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// reply queues data for client if it is still registered.
func (h *Hub) reply(client *Client, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		h.drop(client)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read error", "client", c.id, "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Debug("unreadable client message", "client", c.id, "error", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.socket.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		c.hub.reply(c, data)
	default:
		c.hub.log.Debug("unknown message type", "type", msg.Type, "client", c.id)
	}
}
