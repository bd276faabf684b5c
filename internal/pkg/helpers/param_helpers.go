package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
)

// ParseUUIDParam reads a path parameter as a UUID. A malformed id is reported
// as a validation error on that parameter.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError().Add(name, "must be a valid UUID")
	}
	return id, nil
}
