package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog/log"
)

// HandleAPIError maps a service error onto a status code and error envelope
func HandleAPIError(c *gin.Context, err error) {
	status, detail := describeError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	c.JSON(status, dto.APIResponse{
		Error:     detail,
		Timestamp: time.Now(),
	})
}

func describeError(err error) (int, *dto.ErrorDetail) {
	var validationErr *apperrors.ValidationError
	var transitionErr *apperrors.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		violations := make([]dto.FieldViolation, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			violations = append(violations, dto.FieldViolation{Field: f.Field, Reason: f.Reason})
		}
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(violations)
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, err.Error())
	case errors.As(err, &transitionErr):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeInvalidTransition, "Status change not allowed").
			WithDetails(map[string]string{
				"entity": transitionErr.Entity,
				"from":   transitionErr.From,
				"to":     transitionErr.To,
			})
	case errors.Is(err, apperrors.ErrNotEligible):
		return http.StatusUnprocessableEntity, dto.NewErrorDetail(dto.ErrorCodeNotEligible, err.Error())
	case errors.Is(err, apperrors.ErrDuplicateApplication):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeDuplicateApplication, "You have already applied to this opportunity")
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "The resource was changed by another request, reload and retry")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, err.Error())
	case apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrProfileNotFound, apperrors.ErrUserNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error())
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case apperrors.Is(err, apperrors.ErrEmailAlreadyExists, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, err.Error())
	case errors.Is(err, apperrors.ErrConnection):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "Service temporarily unavailable, please retry").
			WithSeverity(dto.ErrorSeverityCritical)
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
	}
}
