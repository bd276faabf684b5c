package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two profiles. Append-only except Read.
type Message struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SenderID   uuid.UUID `json:"senderId" db:"sender_id"`
	ReceiverID uuid.UUID `json:"receiverId" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	Read       bool      `json:"read" db:"read"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Conversation summarises the thread with one partner
type Conversation struct {
	Partner     *Profile `json:"partner"`
	LastMessage *Message `json:"lastMessage"`
	UnreadCount int      `json:"unreadCount"`
}
