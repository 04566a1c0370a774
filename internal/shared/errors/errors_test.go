package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "not_found: worker not found", NewNotFoundError("worker not found").Error())
	assert.Equal(t,
		"unauthorized: not an approved worker (agent-7)",
		NewUnauthorizedError("not an approved worker", "agent-7").Error(),
	)
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code int
		typ  ErrorType
	}{
		{NewValidationError("x"), http.StatusBadRequest, ErrorTypeValidation},
		{NewNotFoundError("x"), http.StatusNotFound, ErrorTypeNotFound},
		{NewConflictError("x"), http.StatusConflict, ErrorTypeConflict},
		{NewUnauthorizedError("x"), http.StatusUnauthorized, ErrorTypeUnauthorized},
		{NewForbiddenError("x"), http.StatusForbidden, ErrorTypeForbidden},
		{NewInvalidStateError("x"), http.StatusConflict, ErrorTypeInvalidState},
		{NewAttestationFailureError("x"), http.StatusUnprocessableEntity, ErrorTypeAttestationFailure},
		{NewInternalError("x"), http.StatusInternalServerError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.typ, tt.err.Type)
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to resume subscription: %w", NewInvalidStateError("subscription is not paused"))

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsInvalidStateError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))
	assert.Equal(t, "subscription is not paused", GetAppError(wrapped).Message)

	assert.Nil(t, GetAppError(fmt.Errorf("plain")))
	assert.True(t, IsUnauthorizedError(NewUnauthorizedError("x")))
	assert.True(t, IsValidationError(NewValidationError("x")))
	assert.True(t, IsConflictError(NewConflictError("x")))
}
