package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	paymentUsecases "github.com/orris-inc/autopay/internal/application/payment/usecases"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
)

type PaymentHandler struct {
	service paymentService
	logger  logger.Interface
}

func NewPaymentHandler(service paymentService, logger logger.Interface) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

// GetDueSubscriptions lists active subscriptions whose next payment date has
// passed, in storage order.
func (h *PaymentHandler) GetDueSubscriptions(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	limit := constants.DefaultDueLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > paymentUsecases.MaxDueLimit {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid limit", raw))
			return
		}
		limit = parsed
	}

	subs, err := h.service.GetDueSubscriptions(c.Request.Context(), caller, limit)
	if err != nil {
		h.logger.Warnw("failed to get due subscriptions", "error", err, "caller", caller)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", subs)
}

// ProcessPayment answers 200 for both successful and rejected attempts; the
// outcome is in the result's success field.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}
	publicKey, ok := middleware.GetDelegatedKey(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "delegated key signature required")
		return
	}

	subscriptionID, err := utils.ParseIDParam(c, "id", "subscription")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.service.ProcessPayment(c.Request.Context(), paymentUsecases.ProcessPaymentCommand{
		Caller:         caller,
		PublicKey:      publicKey,
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		h.logger.Warnw("payment processing failed", "error", err, "caller", caller, "subscription_id", subscriptionID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	message := "payment processed"
	if !result.Success {
		message = "payment rejected"
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}
