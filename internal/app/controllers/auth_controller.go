package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/rs/zerolog"
)

// AuthController handles registration, login and the current account
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

func toAuthResponse(session *services.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: session.AccessToken,
			TokenType:   session.TokenType,
			ExpiresIn:   session.ExpiresIn,
		},
		Account: session.Account,
	}
}

// Register handles account registration
// @Summary Register a new account
// @Description Creates the user, its profile and the NGO or expert profile in one step and returns a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account created"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		c.logger.Warn().Msg("Invalid registration request payload")
		return
	}

	input := services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	}
	if req.NGO != nil {
		input.NGO = &services.NGODetails{
			OrganizationName: req.NGO.OrganizationName,
			Country:          req.NGO.Country,
			City:             req.NGO.City,
			Website:          req.NGO.Website,
			MissionStatement: req.NGO.MissionStatement,
			FoundedYear:      req.NGO.FoundedYear,
		}
	}
	if req.Expert != nil {
		input.Expert = &services.ExpertDetails{
			ExpertiseAreas:  req.Expert.ExpertiseAreas,
			YearsExperience: req.Expert.YearsExperience,
			Education:       req.Expert.Education,
			Certifications:  req.Expert.Certifications,
			HourlyRate:      req.Expert.HourlyRate,
		}
	}

	session, err := c.authService.Register(ctx.Request.Context(), input)
	if err != nil {
		c.logger.Warn().Err(err).Str("role", string(req.Role)).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	created(ctx, toAuthResponse(session), "Account created")
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user and returns an access token with the resolved account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.authService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ok(ctx, toAuthResponse(session), "Login successful")
}

// Me returns the authenticated account
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Current account"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	account, found := middleware.GetAccount(ctx)
	if !found {
		currentActor(ctx)
		return
	}
	ok(ctx, account, "")
}
