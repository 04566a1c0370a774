package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/orris-inc/autopay/internal/domain/permission"
	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type ApproveCodehashCommand struct {
	Caller   string
	Codehash string
}

type ApproveCodehashUseCase struct {
	codehashRepo worker.CodehashRepository
	enforcer     permission.PermissionEnforcer
	clock        biztime.Clock
	logger       logger.Interface
}

func NewApproveCodehashUseCase(
	codehashRepo worker.CodehashRepository,
	enforcer permission.PermissionEnforcer,
	clock biztime.Clock,
	logger logger.Interface,
) *ApproveCodehashUseCase {
	return &ApproveCodehashUseCase{
		codehashRepo: codehashRepo,
		enforcer:     enforcer,
		clock:        clock,
		logger:       logger,
	}
}

func (uc *ApproveCodehashUseCase) Execute(ctx context.Context, cmd ApproveCodehashCommand) error {
	allowed, err := uc.enforcer.Enforce(cmd.Caller, permission.ResourceCodehash, permission.ActionApprove)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !allowed {
		uc.logger.Warnw("codehash approval denied", "caller", cmd.Caller)
		return errors.NewUnauthorizedError("Only owner can call this method")
	}

	codehash := strings.TrimSpace(cmd.Codehash)
	if codehash == "" {
		return errors.NewValidationError("codehash is required")
	}

	if err := uc.codehashRepo.Approve(ctx, codehash); err != nil {
		uc.logger.Errorw("failed to approve codehash", "error", err, "codehash", codehash)
		return fmt.Errorf("failed to approve codehash: %w", err)
	}

	events.Record(ctx, worker.NewCodehashApprovedEvent(codehash, uc.clock.Now()))
	uc.logger.Infow("codehash approved", "codehash", codehash, "caller", cmd.Caller)

	return nil
}
