package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from a client
	maxMessageSize = 16 * 1024
)

// Client is a middleman between one websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound frames
	send chan []byte

	actor      models.Actor
	profileID  uuid.UUID
	remoteAddr string

	logger zerolog.Logger
}

// NewClient creates a client for an authenticated actor. conn may be nil in tests.
func NewClient(hub *Hub, conn *websocket.Conn, actor models.Actor, sendBuffer int, logger zerolog.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		actor:     actor,
		profileID: actor.ProfileID,
		logger:    logger,
	}
	if conn != nil {
		client.remoteAddr = conn.RemoteAddr().String()
	}
	return client
}

// Frames returns the outbound channel; it is closed when the hub drops the client
func (c *Client) Frames() <-chan []byte {
	return c.send
}

// readPump reads client frames and hands them to the message handler
func (c *Client) readPump(ctx context.Context, handler *MessageHandler) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.logger.Info().Str("profileID", c.profileID.String()).Msg("WebSocket closed normally")
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
				c.logger.Warn().Err(err).Str("profileID", c.profileID.String()).Msg("Unexpected WebSocket close")
			default:
				c.logger.Debug().Err(err).Str("profileID", c.profileID.String()).Msg("WebSocket read error")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reply(Event{Type: EventError, Error: "malformed frame"})
			continue
		}
		c.reply(handler.Handle(ctx, c.actor, frame))
	}
}

// reply sends an event straight to this client only
func (c *Client) reply(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if !c.hub.sendTo(c, data) {
		c.logger.Warn().Str("profileID", c.profileID.String()).Msg("Reply dropped")
	}
}

// writePump writes hub frames to the connection and keeps it alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
