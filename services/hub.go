package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types sent to game watchers.
const (
	MessagePredictionsSubmitted = "predictions_submitted"
	MessageScoresSubmitted      = "scores_submitted"
	MessageRoundStarted         = "round_started"
	MessageGameCompleted        = "game_completed"
	MessageGameState            = "game_state"
	MessagePong                 = "pong"
	MessageError                = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Hub fans game updates out to websocket clients watching a game.
type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	mutex       sync.RWMutex
	gameService *GameService
	logger      *zap.Logger
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
	gameID uint
	actor  Actor
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(gameService *GameService, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		gameService: gameService,
		logger:      logger,
	}
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug("client registered",
				zap.String("client_id", client.id), zap.Uint("game_id", client.gameID), zap.Int("clients", total))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug("client unregistered",
				zap.String("client_id", client.id), zap.Uint("game_id", client.gameID), zap.Int("clients", total))
		}
	}
}

// BroadcastToGame sends a message to every client watching gameID. Clients
// whose buffers are full are dropped.
func (h *Hub) BroadcastToGame(gameID uint, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal message", zap.String("type", messageType), zap.Error(err))
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	sent := 0
	for client := range h.clients {
		if client.gameID != gameID {
			continue
		}
		select {
		case client.send <- data:
			sent++
		default:
			h.logger.Warn("client send buffer full, dropping", zap.String("client_id", client.id))
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.logger.Debug("broadcast", zap.String("type", messageType), zap.Uint("game_id", gameID), zap.Int("clients", sent))
}

// PublishTransition broadcasts the outcome of a bid or score submission.
func (h *Hub) PublishTransition(gameID uint, messageType string, result *TransitionResult) {
	h.BroadcastToGame(gameID, messageType, result.Game)
	switch {
	case result.Completed:
		h.BroadcastToGame(gameID, MessageGameCompleted, map[string]interface{}{
			"winners":   result.Game.Winners,
			"standings": result.Game.Standings,
		})
	case result.RoundStarted:
		h.BroadcastToGame(gameID, MessageRoundStarted, result.Game.CurrentRound)
	}
}

// WatcherCount is the number of clients watching gameID.
func (h *Hub) WatcherCount(gameID uint) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for client := range h.clients {
		if client.gameID == gameID {
			n++
		}
	}
	return n
}

func (h *Hub) RegisterClient(conn *websocket.Conn, gameID uint, actor Actor) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBufferSize),
		gameID: gameID,
		actor:  actor,
	}

	// Buffered, so the first state reaches the client before any broadcast.
	if data, err := client.gameStateMessage(); err == nil {
		client.send <- data
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.socket.Close()
	}()

	c.socket.SetReadLimit(4096)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(MessageError, "invalid message")
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
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		c.reply(MessagePong, "pong")
	case "request_game_state":
		data, err := c.gameStateMessage()
		if err != nil {
			c.reply(MessageError, "game state unavailable")
			return
		}
		c.queue(data)
	default:
		c.reply(MessageError, "unknown message type "+msg.Type)
	}
}

func (c *Client) gameStateMessage() ([]byte, error) {
	detail, err := c.hub.gameService.GetGame(context.Background(), c.actor, c.gameID)
	if err != nil {
		c.hub.logger.Warn("game state unavailable", zap.Uint("game_id", c.gameID), zap.Error(err))
		return nil, err
	}
	return json.Marshal(Message{Type: MessageGameState, Payload: detail})
}

// reply queues a message for this client only.
func (c *Client) reply(messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		return
	}
	c.queue(data)
}

func (c *Client) queue(data []byte) {
	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
