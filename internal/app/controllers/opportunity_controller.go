package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// OpportunityController exposes the opportunity lifecycle
type OpportunityController struct {
	opportunityService services.OpportunityService
	logger             zerolog.Logger
}

// NewOpportunityController creates a new OpportunityController
func NewOpportunityController(opportunityService services.OpportunityService, logger zerolog.Logger) *OpportunityController {
	return &OpportunityController{
		opportunityService: opportunityService,
		logger:             logger,
	}
}

// toCreateInput converts the request. Malformed dates are merged with the
// service's own field checks so the client sees every problem at once.
func toCreateInput(req dto.CreateOpportunityRequest) (services.CreateOpportunityInput, error) {
	input := services.CreateOpportunityInput{
		Title:             req.Title,
		Description:       req.Description,
		RequiredExpertise: req.RequiredExpertise,
		LocationName:      req.LocationName,
		Compensation: models.Compensation{
			Type:     models.CompensationType(req.Compensation.Type),
			Amount:   req.Compensation.Amount,
			Currency: req.Compensation.Currency,
			Unit:     req.Compensation.Unit,
		},
		Status: models.OpportunityStatus(req.Status),
	}

	formatErrs := apperrors.NewValidationError()
	var err error
	if input.StartDate, err = helpers.ParseDate(req.StartDate); err != nil {
		formatErrs.Add("start_date", "must use the YYYY-MM-DD format")
	}
	if input.EndDate, err = helpers.ParseDate(req.EndDate); err != nil {
		formatErrs.Add("end_date", "must use the YYYY-MM-DD format")
	}
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		input.Geo = &models.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
	case req.Latitude != nil || req.Longitude != nil:
		formatErrs.Add("geo", "latitude and longitude must be given together")
	}

	if !formatErrs.HasErrors() {
		return input, nil
	}

	reported := make(map[string]bool, len(formatErrs.Fields))
	for _, f := range formatErrs.Fields {
		reported[f.Field] = true
	}
	for _, f := range services.ValidateOpportunityInput(input).Fields {
		if !reported[f.Field] {
			formatErrs.Add(f.Field, f.Reason)
		}
	}
	return input, formatErrs
}

// CreateOpportunity publishes or drafts a new opportunity for the caller's NGO
// @Summary Create an opportunity
// @Description NGO only. Every invalid field is reported together.
// @Tags opportunities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOpportunityRequest true "Opportunity"
// @Success 201 {object} dto.APIResponse{data=models.Opportunity} "Opportunity created"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Not an NGO"
// @Router /opportunities [post]
func (c *OpportunityController) CreateOpportunity(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	var req dto.CreateOpportunityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	input, err := toCreateInput(req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	opportunity, err := c.opportunityService.Create(ctx.Request.Context(), actor, input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	created(ctx, opportunity, "Opportunity created")
}

// GetOpportunity returns one opportunity; drafts are visible to their owner only
// @Summary Get an opportunity
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Opportunity ID"
// @Success 200 {object} dto.APIResponse{data=models.Opportunity}
// @Failure 404 {object} dto.ErrorResponse "Opportunity not found"
// @Router /opportunities/{id} [get]
func (c *OpportunityController) GetOpportunity(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	opportunity, err := c.opportunityService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, opportunity, "")
}

// ListOpenOpportunities is the explore feed
// @Summary Explore open opportunities
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches title, description or location"
// @Param expertise query string false "Required expertise area"
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=[]models.Opportunity}
// @Router /opportunities [get]
func (c *OpportunityController) ListOpenOpportunities(ctx *gin.Context) {
	var query dto.OpportunityListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	page := helpers.ParsePage(ctx)

	items, total, err := c.opportunityService.ListOpen(ctx.Request.Context(), services.OpportunityQuery{
		Search:    query.Search,
		Expertise: query.Expertise,
		Offset:    page.Offset(),
		Limit:     page.Size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(items, page.Info(total)))
}

// TransitionOpportunity moves an opportunity along its lifecycle
// @Summary Change opportunity status
// @Description Owner only. Allowed: draft→open, open→in_progress, open→closed, in_progress→closed.
// @Tags opportunities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Opportunity ID"
// @Param request body dto.TransitionOpportunityRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=models.Opportunity}
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 409 {object} dto.ErrorResponse "Transition not allowed or concurrent change"
// @Router /opportunities/{id}/status [patch]
func (c *OpportunityController) TransitionOpportunity(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	var req dto.TransitionOpportunityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	opportunity, err := c.opportunityService.Transition(ctx.Request.Context(), actor, id, models.OpportunityStatus(req.Status))
	if err != nil {
		c.logger.Debug().Err(err).Str("opportunityID", id.String()).Str("target", req.Status).Msg("Transition refused")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, opportunity, "Status updated")
}

// ListNGOOpportunities lists an NGO's opportunities. Non-owners never see drafts.
// @Summary NGO opportunities
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Param id path string true "NGO profile ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Opportunity}
// @Failure 404 {object} dto.ErrorResponse "NGO not found"
// @Router /ngos/{id}/opportunities [get]
func (c *OpportunityController) ListNGOOpportunities(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	items, err := c.opportunityService.ListForNGO(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, items, "")
}

// Dashboard lists the caller's own opportunities with application counts
// @Summary NGO dashboard
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]services.OpportunitySummary}
// @Failure 403 {object} dto.ErrorResponse "Not an NGO"
// @Router /ngos/me/dashboard [get]
func (c *OpportunityController) Dashboard(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	summaries, err := c.opportunityService.Dashboard(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, summaries, "")
}

// MyOpportunities is ListNGOOpportunities for the caller's own NGO
func (c *OpportunityController) MyOpportunities(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	ngoID, _ := actor.NGOID()
	if ngoID == uuid.Nil {
		middleware.HandleAPIError(ctx, apperrors.NewForbiddenError(auth.ForbiddenMessage))
		return
	}

	items, err := c.opportunityService.ListForNGO(ctx.Request.Context(), actor, ngoID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, items, "")
}
