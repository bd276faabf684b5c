package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/rs/zerolog"
)

// SavedOpportunityController handles expert bookmarks
type SavedOpportunityController struct {
	savedService services.SavedOpportunityService
	logger       zerolog.Logger
}

// NewSavedOpportunityController creates a new SavedOpportunityController
func NewSavedOpportunityController(savedService services.SavedOpportunityService, logger zerolog.Logger) *SavedOpportunityController {
	return &SavedOpportunityController{
		savedService: savedService,
		logger:       logger,
	}
}

// ToggleSaved flips the bookmark on an opportunity
// @Summary Toggle saved opportunity
// @Tags saved
// @Produce json
// @Security BearerAuth
// @Param id path string true "Opportunity ID"
// @Success 200 {object} dto.APIResponse{data=dto.SavedResponse}
// @Router /opportunities/{id}/save [post]
func (c *SavedOpportunityController) ToggleSaved(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	opportunityID, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	saved, err := c.savedService.Toggle(ctx.Request.Context(), actor, uuid.Nil, opportunityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SavedResponse{OpportunityID: opportunityID.String(), Saved: saved}, "")
}

// SavedState reports whether the caller has saved an opportunity
// @Router /opportunities/{id}/save [get]
func (c *SavedOpportunityController) SavedState(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	opportunityID, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	saved, err := c.savedService.IsSaved(ctx.Request.Context(), actor, uuid.Nil, opportunityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SavedResponse{OpportunityID: opportunityID.String(), Saved: saved}, "")
}

// ListSaved returns the caller's saved opportunities
// @Summary Saved opportunities
// @Tags saved
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Opportunity}
// @Router /experts/me/saved [get]
func (c *SavedOpportunityController) ListSaved(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	items, err := c.savedService.ListSaved(ctx.Request.Context(), actor, uuid.Nil)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, items, "")
}
