package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// MessageConsumer receives every message after it is stored. The realtime
// hub implements it to push messages to the receiver's open connections.
type MessageConsumer interface {
	OnMessageReceived(ctx context.Context, message *models.Message)
}

// DefaultConversationLimit bounds a thread read when no limit is given
const DefaultConversationLimit = 100

// MessageService handles direct messages between profiles
type MessageService interface {
	Send(ctx context.Context, actor models.Actor, receiverID uuid.UUID, content string) (*models.Message, error)
	// Conversation returns the thread with partnerID newest-first and marks
	// the partner's unread messages to the actor as read.
	Conversation(ctx context.Context, actor models.Actor, partnerID uuid.UUID, limit int) ([]*models.Message, error)
	Conversations(ctx context.Context, actor models.Actor) ([]*models.Conversation, error)
	MarkRead(ctx context.Context, actor models.Actor, messageID uuid.UUID) error
}

type messageServiceImpl struct {
	store    repositories.Store
	consumer MessageConsumer
	logger   zerolog.Logger
}

// NewMessageService creates a new messaging service. consumer may be nil.
func NewMessageService(store repositories.Store, consumer MessageConsumer, logger zerolog.Logger) MessageService {
	return &messageServiceImpl{
		store:    store,
		consumer: consumer,
		logger:   logger.With().Str("service", "message").Logger(),
	}
}

func (s *messageServiceImpl) Send(ctx context.Context, actor models.Actor, receiverID uuid.UUID, content string) (*models.Message, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, apperrors.NewForbiddenError(auth.ForbiddenMessage)
	}

	content = strings.TrimSpace(content)
	v := apperrors.NewValidationError()
	switch {
	case content == "":
		v.Add("content", "is required")
	case len([]rune(content)) > validation.MessageMaxLength:
		v.Add("content", "is too long")
	}
	if receiverID == actor.ProfileID {
		v.Add("receiver_id", "cannot message yourself")
	}
	if v.HasErrors() {
		return nil, v
	}

	if _, err := s.store.Profiles().GetProfileByID(ctx, receiverID); err != nil {
		return nil, err
	}

	message := &models.Message{
		SenderID:   actor.ProfileID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.store.Messages().Create(ctx, message); err != nil {
		s.logger.Error().Err(err).Str("receiverID", receiverID.String()).Msg("Failed to store message")
		return nil, err
	}

	if s.consumer != nil {
		s.consumer.OnMessageReceived(ctx, message)
	}

	s.logger.Debug().
		Str("messageID", message.ID.String()).
		Str("senderID", message.SenderID.String()).
		Str("receiverID", receiverID.String()).
		Msg("Message sent")
	return message, nil
}

func (s *messageServiceImpl) Conversation(ctx context.Context, actor models.Actor, partnerID uuid.UUID, limit int) ([]*models.Message, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, apperrors.NewForbiddenError(auth.ForbiddenMessage)
	}
	if limit <= 0 {
		limit = DefaultConversationLimit
	}

	messages, err := s.store.Messages().Query(ctx, repositories.MessageFilter{
		Participants: &[2]uuid.UUID{actor.ProfileID, partnerID},
		Limit:        limit,
		Order:        repositories.NewestFirst,
	})
	if err != nil {
		return nil, err
	}

	n, err := s.store.Messages().MarkRead(ctx, actor.ProfileID, &partnerID, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("partnerID", partnerID.String()).Msg("Failed to mark conversation read")
		return nil, err
	}
	if n > 0 {
		for _, m := range messages {
			if m.ReceiverID == actor.ProfileID {
				m.Read = true
			}
		}
	}
	return messages, nil
}

// Conversations lists one entry per partner, most recent activity first
func (s *messageServiceImpl) Conversations(ctx context.Context, actor models.Actor) ([]*models.Conversation, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, apperrors.NewForbiddenError(auth.ForbiddenMessage)
	}

	me := actor.ProfileID
	messages, err := s.store.Messages().Query(ctx, repositories.MessageFilter{
		Involving: &me,
		Order:     repositories.NewestFirst,
	})
	if err != nil {
		return nil, err
	}

	byPartner := make(map[uuid.UUID]*models.Conversation)
	var order []uuid.UUID
	for _, m := range messages {
		partner := m.SenderID
		if partner == me {
			partner = m.ReceiverID
		}
		conversation, ok := byPartner[partner]
		if !ok {
			conversation = &models.Conversation{LastMessage: m}
			byPartner[partner] = conversation
			order = append(order, partner)
		}
		if m.ReceiverID == me && !m.Read {
			conversation.UnreadCount++
		}
	}

	conversations := make([]*models.Conversation, 0, len(order))
	for _, partnerID := range order {
		profile, err := s.store.Profiles().GetProfileByID(ctx, partnerID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrProfileNotFound) {
				s.logger.Warn().Str("partnerID", partnerID.String()).Msg("Skipping conversation with missing profile")
				continue
			}
			return nil, err
		}
		conversation := byPartner[partnerID]
		conversation.Partner = profile
		conversations = append(conversations, conversation)
	}
	return conversations, nil
}

// MarkRead marks one message read. Only its receiver may do so.
func (s *messageServiceImpl) MarkRead(ctx context.Context, actor models.Actor, messageID uuid.UUID) error {
	message, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return apperrors.NewForbiddenError(auth.ForbiddenMessage)
		}
		return err
	}
	if actor.ProfileID == uuid.Nil || message.ReceiverID != actor.ProfileID {
		return apperrors.NewForbiddenError(auth.ForbiddenMessage)
	}
	if message.Read {
		return nil
	}

	_, err = s.store.Messages().MarkRead(ctx, actor.ProfileID, nil, &messageID)
	return err
}
