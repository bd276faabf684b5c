package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID  = "userID"
	ContextAccount = "account"
	ContextActor   = "actor"
)

// AuthMiddleware authenticates requests and resolves the acting account
type AuthMiddleware struct {
	jwtService *auth.JWTService
	identity   services.IdentityService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, identity services.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		identity:   identity,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// tokenFrom reads the bearer token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so a "token" query parameter is
// accepted as well.
func tokenFrom(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		header = c.Query("token")
	}
	if header == "" {
		return "", auth.ErrInvalidFormat
	}
	return auth.ExtractBearerToken(strings.Trim(header, "\"'"))
}

// JWTAuth validates the access token and stores the user id, the resolved
// account and its actor in the context. The role is always read from the
// profile, never trusted from the token.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFrom(c)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		account, err := m.identity.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrProfileNotFound, apperrors.ErrUserNotFound) {
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Account no longer exists")
				return
			}
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextAccount, account)
		c.Set(ContextActor, account.Actor())
		c.Next()
	}
}

// RoleRequired rejects actors whose profile role differs from role
func (m *AuthMiddleware) RoleRequired(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}
		if actor.Role != role {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("This operation requires the " + string(role) + " role")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}

// GetActor returns the actor stored by JWTAuth
func GetActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextActor)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

// GetAccount returns the account stored by JWTAuth
func GetAccount(c *gin.Context) (models.Account, bool) {
	value, exists := c.Get(ContextAccount)
	if !exists {
		return nil, false
	}
	account, ok := value.(models.Account)
	return account, ok
}

// GetUserID returns the authenticated user id
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
