package websocket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/rs/zerolog"
)

// Frame types accepted from clients
const (
	FrameSend = "message.send"
	FrameRead = "message.read"
)

// Frame is a client request sent over the socket
type Frame struct {
	Type       string    `json:"type"`
	RequestID  string    `json:"requestId,omitempty"`
	ReceiverID uuid.UUID `json:"receiverId,omitempty"`
	MessageID  uuid.UUID `json:"messageId,omitempty"`
	Content    string    `json:"content,omitempty"`
}

// MessageHandler runs socket frames through the message service, so socket
// sends get the same validation and persistence as the HTTP endpoint
type MessageHandler struct {
	messages services.MessageService
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages services.MessageService, timeout time.Duration, logger zerolog.Logger) *MessageHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MessageHandler{
		messages: messages,
		timeout:  timeout,
		logger:   logger,
	}
}

// Handle executes one frame for actor and returns the reply for the sender
func (h *MessageHandler) Handle(ctx context.Context, actor models.Actor, frame Frame) Event {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	switch frame.Type {
	case FrameSend:
		message, err := h.messages.Send(ctx, actor, frame.ReceiverID, frame.Content)
		if err != nil {
			return h.failure(frame, err)
		}
		return Event{Type: EventMessageSent, RequestID: frame.RequestID, Message: message}
	case FrameRead:
		if err := h.messages.MarkRead(ctx, actor, frame.MessageID); err != nil {
			return h.failure(frame, err)
		}
		return Event{Type: EventMessageRead, RequestID: frame.RequestID, Message: &models.Message{ID: frame.MessageID, Read: true}}
	default:
		return Event{Type: EventError, RequestID: frame.RequestID, Error: "unknown frame type " + frame.Type}
	}
}

func (h *MessageHandler) failure(frame Frame, err error) Event {
	kind := services.ErrorKind(err)
	h.logger.Debug().Err(err).Str("frame", frame.Type).Str("kind", kind).Msg("Socket frame failed")

	reason := kind
	if kind != "internal" && kind != "connection" {
		reason = kind + ": " + err.Error()
	}
	return Event{Type: EventError, RequestID: frame.RequestID, Error: reason}
}
