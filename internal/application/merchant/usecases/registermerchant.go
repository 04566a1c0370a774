package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/domain/permission"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type RegisterMerchantCommand struct {
	Caller   string
	Merchant string
}

type RegisterMerchantUseCase struct {
	merchantRepo merchant.Repository
	enforcer     permission.PermissionEnforcer
	clock        biztime.Clock
	logger       logger.Interface
}

func NewRegisterMerchantUseCase(
	merchantRepo merchant.Repository,
	enforcer permission.PermissionEnforcer,
	clock biztime.Clock,
	logger logger.Interface,
) *RegisterMerchantUseCase {
	return &RegisterMerchantUseCase{
		merchantRepo: merchantRepo,
		enforcer:     enforcer,
		clock:        clock,
		logger:       logger,
	}
}

func (uc *RegisterMerchantUseCase) Execute(ctx context.Context, cmd RegisterMerchantCommand) error {
	allowed, err := uc.enforcer.Enforce(cmd.Caller, permission.ResourceMerchant, permission.ActionRegister)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !allowed {
		uc.logger.Warnw("merchant registration denied", "caller", cmd.Caller)
		return errors.NewUnauthorizedError("Only owner can call this method")
	}

	principal := strings.TrimSpace(cmd.Merchant)
	if principal == "" {
		return errors.NewValidationError("merchant is required")
	}

	if err := uc.merchantRepo.Add(ctx, principal, biztime.Unix(uc.clock)); err != nil {
		uc.logger.Errorw("failed to register merchant", "error", err, "merchant", principal)
		return fmt.Errorf("failed to register merchant: %w", err)
	}

	uc.logger.Infow("merchant registered", "merchant", principal)
	return nil
}
