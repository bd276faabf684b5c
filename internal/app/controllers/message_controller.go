package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// MessageController handles direct messages between profiles
type MessageController struct {
	messageService services.MessageService
	logger         zerolog.Logger
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService services.MessageService, logger zerolog.Logger) *MessageController {
	return &MessageController{
		messageService: messageService,
		logger:         logger,
	}
}

// SendMessage sends a direct message and pushes it to the receiver's open sockets
// @Summary Send a message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.Message}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 404 {object} dto.ErrorResponse "Receiver not found"
// @Router /messages [post]
func (c *MessageController) SendMessage(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	var req dto.SendMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError().Add("receiverId", "must be a valid UUID"))
		return
	}

	message, err := c.messageService.Send(ctx.Request.Context(), actor, receiverID, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, message, "Message sent")
}

// ListConversations returns one entry per partner, most recent activity first
// @Summary Conversations
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Conversation}
// @Router /conversations [get]
func (c *MessageController) ListConversations(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	conversations, err := c.messageService.Conversations(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, conversations, "")
}

// GetConversation returns the thread with one partner and marks it read
// @Summary Conversation with a profile
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param partnerId path string true "Partner profile ID"
// @Param limit query int false "Maximum messages" default(100)
// @Success 200 {object} dto.APIResponse{data=[]models.Message}
// @Router /conversations/{partnerId} [get]
func (c *MessageController) GetConversation(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	partnerID, valid := pathID(ctx, "partnerId")
	if !valid {
		return
	}

	var query dto.ConversationQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	messages, err := c.messageService.Conversation(ctx.Request.Context(), actor, partnerID, query.Limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, messages, "")
}

// MarkRead marks one received message as read
// @Router /messages/{id}/read [post]
func (c *MessageController) MarkRead(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	if err := c.messageService.MarkRead(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, nil, "Message marked as read")
}
