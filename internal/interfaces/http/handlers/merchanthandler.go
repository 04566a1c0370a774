package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
)

type MerchantHandler struct {
	service merchantService
	logger  logger.Interface
}

func NewMerchantHandler(service merchantService, logger logger.Interface) *MerchantHandler {
	return &MerchantHandler{
		service: service,
		logger:  logger,
	}
}

type RegisterMerchantRequest struct {
	Principal string `json:"principal" validate:"required,max=128"`
}

// RegisterMerchant is owner only.
func (h *MerchantHandler) RegisterMerchant(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	var req RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.service.RegisterMerchant(c.Request.Context(), caller, req.Principal); err != nil {
		h.logger.Warnw("failed to register merchant", "error", err, "caller", caller, "merchant", req.Principal)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, "merchant registered", gin.H{"principal": req.Principal})
}

func (h *MerchantHandler) ListMerchants(c *gin.Context) {
	merchants, err := h.service.ListMerchants(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if merchants == nil {
		merchants = []string{}
	}

	utils.SuccessResponse(c, http.StatusOK, "", merchants)
}

func (h *MerchantHandler) ListMerchantSubscriptions(c *gin.Context) {
	merchantID, err := utils.ParseIDParam(c, "principal", "merchant")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	subs, err := h.service.ListMerchantSubscriptions(c.Request.Context(), merchantID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", subs)
}
