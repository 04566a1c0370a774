package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	subscriptionUsecases "github.com/orris-inc/autopay/internal/application/subscription/usecases"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/infrastructure/attestation"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
)

type SubscriptionHandler struct {
	service subscriptionService
	logger  logger.Interface
}

func NewSubscriptionHandler(service subscriptionService, logger logger.Interface) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		logger:  logger,
	}
}

type PaymentMethodRequest struct {
	Type    string `json:"type" validate:"required,oneof=native fungible_token"`
	TokenID string `json:"token_id" validate:"required_if=Type fungible_token,max=128"`
}

type CreateSubscriptionRequest struct {
	MerchantID    string                `json:"merchant_id" validate:"required,max=128"`
	Amount        string                `json:"amount" validate:"required,amount"`
	Frequency     string                `json:"frequency" validate:"required,oneof=daily weekly monthly quarterly yearly"`
	PaymentMethod *PaymentMethodRequest `json:"payment_method" validate:"omitempty"`
	MaxPayments   *uint32               `json:"max_payments" validate:"omitempty,gt=0"`
	EndDate       *int64                `json:"end_date" validate:"omitempty,gt=0"`
}

type CreateSubscriptionResponse struct {
	ID string `json:"id"`
}

type RegisterKeyRequest struct {
	PublicKey string `json:"public_key" validate:"required"`
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	payer, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("invalid request body for create subscription", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd, err := req.toCommand(payer)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	subscriptionID, err := h.service.CreateSubscription(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to create subscription", "error", err, "payer", payer, "merchant_id", req.MerchantID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, "subscription created successfully", CreateSubscriptionResponse{ID: subscriptionID})
}

func (r CreateSubscriptionRequest) toCommand(payer string) (subscriptionUsecases.CreateSubscriptionCommand, error) {
	amount, err := vo.ParseAmount(r.Amount)
	if err != nil {
		return subscriptionUsecases.CreateSubscriptionCommand{}, errors.NewValidationError("invalid amount", err.Error())
	}
	frequency, err := vo.ParseFrequency(r.Frequency)
	if err != nil {
		return subscriptionUsecases.CreateSubscriptionCommand{}, errors.NewValidationError("invalid frequency", err.Error())
	}
	method := vo.NativePayment()
	if r.PaymentMethod != nil {
		method, err = vo.NewPaymentMethod(r.PaymentMethod.Type, r.PaymentMethod.TokenID)
		if err != nil {
			return subscriptionUsecases.CreateSubscriptionCommand{}, errors.NewValidationError("invalid payment method", err.Error())
		}
	}

	return subscriptionUsecases.CreateSubscriptionCommand{
		Payer:         payer,
		MerchantID:    r.MerchantID,
		Amount:        amount,
		Frequency:     frequency,
		PaymentMethod: method,
		MaxPayments:   r.MaxPayments,
		EndDate:       r.EndDate,
	}, nil
}

func (h *SubscriptionHandler) RegisterKey(c *gin.Context) {
	payer, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	subscriptionID, err := utils.ParseIDParam(c, "id", "subscription")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req RegisterKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	pub, err := attestation.ParsePublicKey(req.PublicKey)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid public key", err.Error()))
		return
	}
	publicKey := attestation.FormatPublicKey(pub)

	err = h.service.RegisterSubscriptionKey(c.Request.Context(), subscriptionUsecases.RegisterSubscriptionKeyCommand{
		Payer:          payer,
		PublicKey:      publicKey,
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		h.logger.Warnw("failed to register subscription key", "error", err, "payer", payer, "subscription_id", subscriptionID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "key registered", gin.H{
		"subscription_id": subscriptionID,
		"public_key":      publicKey,
	})
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	h.changeStatus(c, "canceled", h.service.CancelSubscription)
}

func (h *SubscriptionHandler) PauseSubscription(c *gin.Context) {
	h.changeStatus(c, "paused", h.service.PauseSubscription)
}

func (h *SubscriptionHandler) ResumeSubscription(c *gin.Context) {
	h.changeStatus(c, "resumed", h.service.ResumeSubscription)
}

func (h *SubscriptionHandler) changeStatus(
	c *gin.Context,
	verb string,
	apply func(ctx context.Context, subscriptionID, caller string) error,
) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	subscriptionID, err := utils.ParseIDParam(c, "id", "subscription")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := apply(c.Request.Context(), subscriptionID, caller); err != nil {
		h.logger.Warnw("failed to change subscription status",
			"error", err,
			"subscription_id", subscriptionID,
			"caller", caller,
			"action", verb,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subscription "+verb, gin.H{"id": subscriptionID})
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	subscriptionID, err := utils.ParseIDParam(c, "id", "subscription")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	sub, err := h.service.GetSubscription(c.Request.Context(), subscriptionID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if sub == nil {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("subscription not found", subscriptionID))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", sub)
}

func (h *SubscriptionHandler) ListUserSubscriptions(c *gin.Context) {
	userID, err := utils.ParseIDParam(c, "principal", "user")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	subs, err := h.service.ListUserSubscriptions(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", subs)
}
