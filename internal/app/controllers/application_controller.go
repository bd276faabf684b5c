package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/rs/zerolog"
)

// ApplicationController exposes the application lifecycle
type ApplicationController struct {
	applicationService services.ApplicationService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService services.ApplicationService, logger zerolog.Logger) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		logger:             logger,
	}
}

// Apply submits the caller's application to an open opportunity
// @Summary Apply to an opportunity
// @Description Expert only. The cover message is optional; missingMessage is true when it was left empty.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Opportunity ID"
// @Param request body dto.ApplyRequest false "Cover message"
// @Success 201 {object} dto.APIResponse{data=services.ApplyResult}
// @Failure 404 {object} dto.ErrorResponse "Opportunity not found"
// @Failure 409 {object} dto.ErrorResponse "Already applied"
// @Failure 422 {object} dto.ErrorResponse "Opportunity not open"
// @Router /opportunities/{id}/applications [post]
func (c *ApplicationController) Apply(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	opportunityID, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	var req dto.ApplyRequest
	if ctx.Request.ContentLength != 0 && !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.applicationService.Apply(ctx.Request.Context(), actor, opportunityID, req.Message)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, result, "Application submitted")
}

// ListOpportunityApplications lists applicants for the owner of an opportunity
// @Summary Applicants of an opportunity
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Opportunity ID"
// @Success 200 {object} dto.APIResponse{data=[]services.Applicant}
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Router /opportunities/{id}/applications [get]
func (c *ApplicationController) ListOpportunityApplications(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	opportunityID, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	applicants, err := c.applicationService.ListForOpportunity(ctx.Request.Context(), actor, opportunityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, applicants, "")
}

// ListMyApplications lists the caller's applications with their opportunities
// @Summary My applications
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]services.ExpertApplication}
// @Router /experts/me/applications [get]
func (c *ApplicationController) ListMyApplications(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	items, err := c.applicationService.ListForExpert(ctx.Request.Context(), actor, uuid.Nil)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, items, "")
}

// GetApplication returns an application to its expert or the opportunity owner
// @Summary Get an application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} dto.APIResponse{data=services.ApplicationDetail}
// @Failure 403 {object} dto.ErrorResponse "Not a participant"
// @Router /applications/{id} [get]
func (c *ApplicationController) GetApplication(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	detail, err := c.applicationService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, detail, "")
}

type decision func(ctx *gin.Context, actor models.Actor, id uuid.UUID) (*models.Application, error)

func (c *ApplicationController) decide(ctx *gin.Context, action string, fn decision) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	application, err := fn(ctx, actor, id)
	if err != nil {
		c.logger.Debug().Err(err).Str("applicationID", id.String()).Str("action", action).Msg("Application decision refused")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, application, "Application "+string(application.Status))
}

// AcceptApplication accepts a pending application and starts the opportunity
// @Summary Accept an application
// @Description Opportunity owner only. An open opportunity moves to in_progress in the same step.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} dto.APIResponse{data=models.Application}
// @Failure 409 {object} dto.ErrorResponse "Not pending or concurrent change"
// @Failure 422 {object} dto.ErrorResponse "Opportunity not open"
// @Router /applications/{id}/accept [post]
func (c *ApplicationController) AcceptApplication(ctx *gin.Context) {
	c.decide(ctx, "accept", func(ctx *gin.Context, actor models.Actor, id uuid.UUID) (*models.Application, error) {
		return c.applicationService.Accept(ctx.Request.Context(), actor, id)
	})
}

// RejectApplication rejects a pending application
// @Summary Reject an application
// @Tags applications
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Router /applications/{id}/reject [post]
func (c *ApplicationController) RejectApplication(ctx *gin.Context) {
	c.decide(ctx, "reject", func(ctx *gin.Context, actor models.Actor, id uuid.UUID) (*models.Application, error) {
		return c.applicationService.Reject(ctx.Request.Context(), actor, id)
	})
}

// WithdrawApplication withdraws the caller's pending application
// @Summary Withdraw an application
// @Tags applications
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Router /applications/{id}/withdraw [post]
func (c *ApplicationController) WithdrawApplication(ctx *gin.Context) {
	c.decide(ctx, "withdraw", func(ctx *gin.Context, actor models.Actor, id uuid.UUID) (*models.Application, error) {
		return c.applicationService.Withdraw(ctx.Request.Context(), actor, id)
	})
}
