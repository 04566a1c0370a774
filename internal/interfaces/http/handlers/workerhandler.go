package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	workerUsecases "github.com/orris-inc/autopay/internal/application/worker/usecases"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
)

type WorkerHandler struct {
	service workerService
	logger  logger.Interface
}

func NewWorkerHandler(service workerService, logger logger.Interface) *WorkerHandler {
	return &WorkerHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterWorkerRequest carries an attestation quote. The quote may be sent
// either as the JSON document itself or as a JSON string holding it.
type RegisterWorkerRequest struct {
	Quote       json.RawMessage `json:"quote" validate:"required"`
	TrustAnchor string          `json:"trust_anchor" validate:"required"`
	Checksum    string          `json:"checksum" validate:"required,max=128"`
	Codehash    string          `json:"codehash" validate:"required,max=128"`
}

type RegisterWorkerResponse struct {
	Registered bool `json:"registered"`
}

type ApproveCodehashRequest struct {
	Codehash string `json:"codehash" validate:"required,max=128"`
}

type VerificationResponse struct {
	Principal string `json:"principal"`
	Verified  bool   `json:"verified"`
}

func (h *WorkerHandler) RegisterWorker(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	var req RegisterWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("invalid request body for register worker", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	quote, err := quoteBytes(req.Quote)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid quote", err.Error()))
		return
	}

	registered, err := h.service.RegisterWorker(c.Request.Context(), workerUsecases.RegisterWorkerCommand{
		Principal:   principal,
		Quote:       quote,
		TrustAnchor: req.TrustAnchor,
		Checksum:    req.Checksum,
		Codehash:    req.Codehash,
	})
	if err != nil {
		h.logger.Errorw("failed to register worker", "error", err, "principal", principal)
		utils.ErrorResponseWithError(c, err)
		return
	}

	message := "worker registered successfully"
	if !registered {
		message = "attestation rejected"
	}
	utils.SuccessResponse(c, http.StatusOK, message, RegisterWorkerResponse{Registered: registered})
}

func (h *WorkerHandler) GetWorker(c *gin.Context) {
	principal, err := utils.ParseIDParam(c, "principal", "worker")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	worker, err := h.service.GetWorker(c.Request.Context(), principal)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", worker)
}

// VerifyCodehash succeeds only when the caller registered with the given codehash.
func (h *WorkerHandler) VerifyCodehash(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	codehash := strings.TrimSpace(c.Query("codehash"))
	if codehash == "" {
		utils.ErrorResponseWithError(c, errors.NewValidationError("codehash is required"))
		return
	}

	if err := h.service.VerifyWorkerCodehash(c.Request.Context(), principal, codehash); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", VerificationResponse{Principal: principal, Verified: true})
}

// VerifyApproved succeeds only when the caller runs an approved codehash.
func (h *WorkerHandler) VerifyApproved(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	approved, err := h.service.IsApprovedCaller(c.Request.Context(), principal)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !approved {
		utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("Not an approved worker", principal))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", VerificationResponse{Principal: principal, Verified: true})
}

func (h *WorkerHandler) ApproveCodehash(c *gin.Context) {
	caller, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "principal not authenticated")
		return
	}

	var req ApproveCodehashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.service.ApproveCodehash(c.Request.Context(), caller, req.Codehash); err != nil {
		h.logger.Warnw("failed to approve codehash", "error", err, "caller", caller)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "codehash approved", gin.H{"codehash": req.Codehash})
}

func quoteBytes(raw json.RawMessage) ([]byte, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return raw, nil
}
