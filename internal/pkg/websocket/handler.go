package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/rs/zerolog"
)

// Config controls the socket endpoint
type Config struct {
	// SendBuffer is the per-client outbound frame buffer
	SendBuffer int
	// AllowedOrigins restricts browser origins; empty or "*" allows any
	AllowedOrigins []string
}

// Handler upgrades authenticated requests to websocket connections
type Handler struct {
	hub      *Hub
	messages *MessageHandler
	config   Config
	upgrader websocket.Upgrader
	// ctx ends every connection's read loop on shutdown
	ctx    context.Context
	logger zerolog.Logger
}

// NewHandler creates a new websocket Handler
func NewHandler(ctx context.Context, hub *Hub, messages *MessageHandler, config Config, logger zerolog.Logger) *Handler {
	h := &Handler{
		hub:      hub,
		messages: messages,
		config:   config,
		ctx:      ctx,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleConnection godoc
// @Summary Realtime message stream
// @Description Upgrades to a websocket that receives message.received events and accepts message.send and message.read frames
// @Tags messages, websocket
// @Security BearerAuth
// @Param token query string false "Access token when the Authorization header cannot be set"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("profileID", actor.ProfileID.String()).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := NewClient(h.hub, conn, actor, h.config.SendBuffer, h.logger)
	if err := h.hub.Register(h.ctx, client); err != nil {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.ctx, h.messages)

	h.logger.Info().
		Str("profileID", actor.ProfileID.String()).
		Str("remoteAddr", client.remoteAddr).
		Msg("WebSocket connection established")
}
