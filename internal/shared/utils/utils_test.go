package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/errors"
)

type amountRequest struct {
	Amount    string `json:"amount" validate:"required,amount"`
	Frequency string `json:"frequency" validate:"required,oneof=daily weekly"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(amountRequest{Amount: "100", Frequency: "daily"}))

	err := ValidateStruct(amountRequest{Amount: "0", Frequency: "hourly"})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	appErr := errors.GetAppError(err)
	assert.Contains(t, appErr.Details, "amount must be a positive integer")
	assert.Contains(t, appErr.Details, "frequency must be one of")

	err = ValidateStruct(amountRequest{Amount: "340282366920938463463374607431768211456", Frequency: "daily"})
	assert.Error(t, err, "2^128 does not fit")
}

func TestErrorResponseWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantType string
	}{
		{"app error", errors.NewNotFoundError("Subscription not found"), http.StatusNotFound, "not_found"},
		{"plain error", assert.AnError, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponseWithError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantType, resp.Error.Type)
		})
	}
}

func TestErrorResponse_TypeFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		code     int
		wantType string
	}{
		{http.StatusBadRequest, "validation_error"},
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusTooManyRequests, "rate_limited"},
		{http.StatusServiceUnavailable, "internal_error"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyRequestID, "req-1")

		ErrorResponse(c, tt.code, "nope")

		assert.Equal(t, tt.code, w.Code)
		var resp APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tt.wantType, resp.Error.Type)
		assert.Equal(t, "nope", resp.Error.Message)
		assert.Equal(t, "req-1", resp.RequestID)
		assert.Nil(t, resp.Data)
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "ed25519:0123…cdef", MaskKey("ed25519:0123456789abcdef"))
	assert.Equal(t, "short", MaskKey("short"))
}
