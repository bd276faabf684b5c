// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/models/dto"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/impactlink/impactlink/internal/pkg/helpers"
)

// currentActor returns the authenticated actor or writes a 401
func currentActor(ctx *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.GetActor(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return models.Actor{}, false
	}
	return actor, true
}

// pathID parses a UUID path parameter or writes a 400
func pathID(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := helpers.ParseUUIDParam(ctx, name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return uuid.Nil, false
	}
	return id, true
}

func ok(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data, message))
}

func created(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data, message))
}
