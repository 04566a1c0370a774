package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/shared/errors"
)

// ParseIDParam reads a required path parameter.
// entityName is used in error messages (e.g., "subscription", "worker").
func ParseIDParam(c *gin.Context, paramName, entityName string) (string, error) {
	value := c.Param(paramName)
	if err := ValidateID(value); err != nil {
		return "", errors.NewValidationError(entityName + " ID is required")
	}
	return value, nil
}
