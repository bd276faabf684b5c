package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/rs/zerolog"
)

// ProfileController handles profile edits and public profile pages
type ProfileController struct {
	profileService services.ProfileService
	logger         zerolog.Logger
}

// NewProfileController creates a new ProfileController
func NewProfileController(profileService services.ProfileService, logger zerolog.Logger) *ProfileController {
	return &ProfileController{
		profileService: profileService,
		logger:         logger,
	}
}

// UpdateProfile edits the caller's base profile
// @Summary Update my profile
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Changes"
// @Success 200 {object} dto.APIResponse
// @Router /me/profile [patch]
func (c *ProfileController) UpdateProfile(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	account, err := c.profileService.UpdateProfile(ctx.Request.Context(), actor, services.UpdateProfileInput{
		FullName:  req.FullName,
		Bio:       req.Bio,
		AvatarRef: req.AvatarRef,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, account, "Profile updated")
}

// UpdateNGO edits the caller's NGO profile
// @Summary Update my NGO profile
// @Tags profiles
// @Security BearerAuth
// @Param request body dto.UpdateNGORequest true "Changes"
// @Router /me/ngo [patch]
func (c *ProfileController) UpdateNGO(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	var req dto.UpdateNGORequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	account, err := c.profileService.UpdateNGO(ctx.Request.Context(), actor, services.UpdateNGOInput{
		OrganizationName: req.OrganizationName,
		Country:          req.Country,
		City:             req.City,
		Website:          req.Website,
		MissionStatement: req.MissionStatement,
		FoundedYear:      req.FoundedYear,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, account, "NGO profile updated")
}

// UpdateExpert edits the caller's expert profile
// @Summary Update my expert profile
// @Tags profiles
// @Security BearerAuth
// @Param request body dto.UpdateExpertRequest true "Changes"
// @Router /me/expert [patch]
func (c *ProfileController) UpdateExpert(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}

	var req dto.UpdateExpertRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	account, err := c.profileService.UpdateExpert(ctx.Request.Context(), actor, services.UpdateExpertInput{
		ExpertiseAreas:  req.ExpertiseAreas,
		YearsExperience: req.YearsExperience,
		Education:       req.Education,
		Certifications:  req.Certifications,
		HourlyRate:      req.HourlyRate,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, account, "Expert profile updated")
}

// GetNGOPage returns an NGO with its public opportunities
// @Summary NGO page
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path string true "NGO profile ID"
// @Success 200 {object} dto.APIResponse{data=services.NGOPage}
// @Failure 404 {object} dto.ErrorResponse "NGO not found"
// @Router /ngos/{id} [get]
func (c *ProfileController) GetNGOPage(ctx *gin.Context) {
	actor, authed := currentActor(ctx)
	if !authed {
		return
	}
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	page, err := c.profileService.NGOPage(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, page, "")
}

// GetExpertPage returns an expert's public profile
// @Router /experts/{id} [get]
func (c *ProfileController) GetExpertPage(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	account, err := c.profileService.ExpertPage(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, account, "")
}

// ExploreExperts lists experts by search text and expertise
// @Summary Explore experts
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches name or expertise"
// @Param expertise query string false "Expertise area"
// @Param limit query int false "Maximum results"
// @Success 200 {object} dto.APIResponse
// @Router /experts [get]
func (c *ProfileController) ExploreExperts(ctx *gin.Context) {
	var query dto.ExpertListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	experts, err := c.profileService.ExploreExperts(ctx.Request.Context(), services.ExpertQuery{
		Search:    query.Search,
		Expertise: query.Expertise,
		Limit:     query.Limit,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, experts, "")
}
