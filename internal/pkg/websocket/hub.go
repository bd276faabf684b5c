package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// Event types pushed to clients
const (
	EventMessageReceived = "message.received"
	EventMessageSent     = "message.sent"
	EventMessageRead     = "message.read"
	EventError           = "error"
)

// Event is the frame written to a socket
type Event struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Message   *models.Message `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type delivery struct {
	profileID uuid.UUID
	event     Event
}

// Hub tracks the open sockets of every profile and pushes events to them.
// It implements services.MessageConsumer.
type Hub struct {
	// Registered clients organized by profile ID
	clients map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	outbound   chan delivery

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub. queueSize bounds the deliveries waiting for Run.
func NewHub(queueSize int, logger zerolog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan delivery, queueSize),
		logger:     logger,
	}
}

// Run processes registrations and deliveries until ctx is done, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case d := <-h.outbound:
			h.deliver(d)
		}
	}
}

// Register adds a client; it blocks until Run accepts it or ctx is done
func (h *Hub) Register(ctx context.Context, client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.profileID]; !ok {
		h.clients[client.profileID] = make(map[*Client]bool)
	}
	h.clients[client.profileID][client] = true

	h.logger.Info().
		Str("profileID", client.profileID.String()).
		Str("addr", client.remoteAddr).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.profileID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.profileID)
	}

	h.logger.Info().
		Str("profileID", client.profileID.String()).
		Str("addr", client.remoteAddr).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// deliver writes the event to every socket of the profile. A client whose
// buffer is full is dropped.
func (h *Hub) deliver(d delivery) {
	data, err := json.Marshal(d.event)
	if err != nil {
		h.logger.Error().Err(err).Str("profileID", d.profileID.String()).Msg("Failed to marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[d.profileID]
	if d.event.Type == EventMessageReceived {
		metrics.RecordDelivery(len(clients) > 0)
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().Str("profileID", d.profileID.String()).Msg("Dropping slow client")
			h.removeLocked(client)
		}
	}
}

// sendTo writes data to one registered client. Membership is checked under
// the lock because the hub closes send when it drops a client.
func (h *Hub) sendTo(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client.profileID][client] {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// Push queues event for profileID without blocking. It reports false when
// the queue is full.
func (h *Hub) Push(profileID uuid.UUID, event Event) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.outbound <- delivery{profileID: profileID, event: event}:
		return true
	default:
		h.logger.Warn().Str("profileID", profileID.String()).Str("type", event.Type).Msg("Delivery queue full, event dropped")
		return false
	}
}

// OnMessageReceived pushes a newly stored message to the receiver's sockets.
// Messages stay in the store, so a dropped push only delays delivery until
// the receiver reloads the conversation.
func (h *Hub) OnMessageReceived(ctx context.Context, message *models.Message) {
	h.Push(message.ReceiverID, Event{Type: EventMessageReceived, Message: message})
}

// ClientsCount returns the number of open sockets for a profile
func (h *Hub) ClientsCount(profileID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[profileID])
}
