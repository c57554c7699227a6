package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-duel-service/internal/app"
)

// WSHandler upgrades HTTP requests to websockets and pumps client events into
// the game server.
type WSHandler struct {
	server   *app.GameServer
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(server *app.GameServer, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		server: server,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// wsClient adapts one websocket connection to app.Conn. All writes go through
// the send channel so exactly one goroutine touches the socket.
type wsClient struct {
	id     string
	conn   *websocket.Conn
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	send   chan app.Event
}

func newWSClient(conn *websocket.Conn, logger *zap.Logger) *wsClient {
	return &wsClient{
		id:     uuid.NewString(),
		conn:   conn,
		logger: logger,
		send:   make(chan app.Event, 16),
	}
}

func (c *wsClient) ID() string { return c.id }

// Send queues an event without blocking. A client that cannot drain its
// buffer loses events rather than stalling the session that produced them.
// Sessions may still hold a reference to this client after its socket drops,
// so sends after close drop instead of hitting a closed channel.
func (c *wsClient) Send(evt app.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- evt:
	default:
		c.logger.Warn("ws send buffer full, dropping event",
			zap.String("conn_id", c.id),
			zap.String("event_type", evt.Type))
	}
}

// close stops the writer. Idempotent; subsequent Sends are no-ops.
func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *wsClient) writeLoop(done chan<- struct{}) {
	defer close(done)
	for evt := range c.send {
		if err := c.conn.WriteJSON(evt); err != nil {
			c.logger.Debug("ws write failed", zap.String("conn_id", c.id), zap.Error(err))
			return
		}
	}
}

// ServeWS runs the connection lifecycle: register, dispatch inbound events
// until the socket drops, then unregister so the player's session slot
// unbinds for a later resume.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := newWSClient(conn, h.logger)
	writerDone := make(chan struct{})
	go client.writeLoop(writerDone)

	h.server.Register(client)
	h.logger.Info("ws connected", zap.String("conn_id", client.id))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, client, inbound)
	}

	h.server.Unregister(client.id)
	client.close()
	<-writerDone
	h.logger.Info("ws disconnected", zap.String("conn_id", client.id))
}

func (h *WSHandler) dispatch(r *http.Request, client *wsClient, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case app.EventJoinQueue:
		var payload app.JoinQueuePayload
		if !h.decode(client, inbound.Payload, &payload) {
			return
		}
		_ = h.server.JoinQueue(ctx, client.id, payload)
	case app.EventLeaveQueue:
		h.server.LeaveQueue(client.id)
	case app.EventStartTraining:
		var payload app.StartTrainingPayload
		if !h.decode(client, inbound.Payload, &payload) {
			return
		}
		_ = h.server.StartTraining(ctx, client.id, payload)
	case app.EventJoinGame:
		var payload app.JoinGamePayload
		if !h.decode(client, inbound.Payload, &payload) {
			return
		}
		_ = h.server.JoinGame(ctx, client.id, payload)
	case app.EventPlayerAnswer:
		var payload app.PlayerAnswerPayload
		if !h.decode(client, inbound.Payload, &payload) {
			return
		}
		_ = h.server.SubmitAnswer(ctx, client.id, payload)
	default:
		client.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "unsupported message type"}})
	}
}

func (h *WSHandler) decode(client *wsClient, raw json.RawMessage, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		client.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "invalid payload"}})
		return false
	}
	return true
}
